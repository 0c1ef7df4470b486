package message

import (
	"fmt"

	"github.com/goccy/go-json"
)

type messageJSON struct {
	Kind    string   `json:"kind"`
	Name    string   `json:"name"`
	Speaker *uint16  `json:"speaker,omitempty"`
	Pages   []string `json:"pages,omitempty"`
	Options []string `json:"options,omitempty"`
}

type containerJSON struct {
	UserID     int16         `json:"user_id,omitempty"`
	Messages   []messageJSON `json:"messages"`
	ActorNames []string      `json:"actor_names"`
}

func (c *Container) MarshalJSON() ([]byte, error) {
	doc := containerJSON{
		UserID:     c.UserID,
		Messages:   make([]messageJSON, 0, len(c.Messages)),
		ActorNames: c.ActorNames,
	}
	if doc.ActorNames == nil {
		doc.ActorNames = []string{}
	}
	for i, msg := range c.Messages {
		if _, err := kindOf(msg); err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		switch m := msg.(type) {
		case *Dialog:
			speaker := m.Speaker
			doc.Messages = append(doc.Messages, messageJSON{Kind: KindDialog.String(), Name: m.Name, Speaker: &speaker, Pages: m.Pages})
		case *Selection:
			doc.Messages = append(doc.Messages, messageJSON{Kind: KindSelection.String(), Name: m.Name, Options: m.Options})
		}
	}
	return json.Marshal(doc)
}

func (c *Container) UnmarshalJSON(data []byte) error {
	var doc containerJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	out := Container{
		UserID:     doc.UserID,
		Messages:   make([]Message, 0, len(doc.Messages)),
		ActorNames: doc.ActorNames,
	}
	for i, m := range doc.Messages {
		switch m.Kind {
		case KindDialog.String():
			d := &Dialog{Name: m.Name, Speaker: NoSpeaker, Pages: m.Pages}
			if m.Speaker != nil {
				d.Speaker = *m.Speaker
			}
			out.Messages = append(out.Messages, d)
		case KindSelection.String():
			out.Messages = append(out.Messages, &Selection{Name: m.Name, Options: m.Options})
		default:
			return fmt.Errorf("message %d: %w: %q", i, ErrUnknownKind, m.Kind)
		}
	}
	*c = out
	return nil
}
