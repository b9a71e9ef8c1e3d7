package message

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// QuickReplyBID identifies the Messages extension that renders quick replies.
const QuickReplyBID = "com.apple.messages.MSMessageExtensionBalloonPlugin:0000000000:com.apple.icloud.apps.messages.business.extension"

const (
	messageVersion     = 1
	interactiveType    = "interactive"
	interactiveVersion = "1.0"
)

// Item is one selectable quick reply option.
type Item struct {
	Identifier string `json:"identifier" yaml:"identifier"`
	Title      string `json:"title" yaml:"title"`
}

// QuickReply is the interactive quick reply body.
type QuickReply struct {
	SummaryText string `json:"summaryText" yaml:"summary_text"`
	Items       []Item `json:"items" yaml:"items"`
}

// InteractiveBody is the data block carried by the interactive message.
type InteractiveBody struct {
	QuickReply        QuickReply `json:"quick-reply"`
	Version           string     `json:"version"`
	RequestIdentifier string     `json:"requestIdentifier"`
}

// InteractiveData wraps the body with the target extension bid.
type InteractiveData struct {
	BID  string          `json:"bid"`
	Data InteractiveBody `json:"data"`
}

// Message is the JSON document posted to the messaging server.
type Message struct {
	SourceID        string          `json:"sourceId"`
	DestinationID   string          `json:"destinationId"`
	V               int             `json:"v"`
	Type            string          `json:"type"`
	ID              string          `json:"id"`
	InteractiveData InteractiveData `json:"interactiveData"`
}

// DefaultQuickReply is the four-item sample used when no items file is given.
func DefaultQuickReply() QuickReply {
	return QuickReply{
		SummaryText: "summary text 1",
		Items: []Item{
			{Identifier: "1", Title: "item1"},
			{Identifier: "2", Title: "item2"},
			{Identifier: "3", Title: "item3"},
			{Identifier: "4", Title: "item4"},
		},
	}
}

// Validate checks that the quick reply can be rendered.
func (q QuickReply) Validate() error {
	if len(q.Items) == 0 {
		return errors.New("message: quick reply needs at least one item")
	}
	seen := make(map[string]struct{}, len(q.Items))
	for i, it := range q.Items {
		id := strings.TrimSpace(it.Identifier)
		if id == "" {
			return fmt.Errorf("message: item[%d]: identifier is required", i)
		}
		if strings.TrimSpace(it.Title) == "" {
			return fmt.Errorf("message: item[%d]: title is required", i)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("message: item[%d]: duplicate identifier %q", i, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// BuildQuickReply assembles an interactive quick reply message with fresh
// message and request identifiers.
func BuildQuickReply(sourceID, destinationID string, qr QuickReply) (*Message, error) {
	if strings.TrimSpace(sourceID) == "" {
		return nil, errors.New("message: source id is required")
	}
	if strings.TrimSpace(destinationID) == "" {
		return nil, errors.New("message: destination id is required")
	}
	if err := qr.Validate(); err != nil {
		return nil, err
	}
	return &Message{
		SourceID:      sourceID,
		DestinationID: destinationID,
		V:             messageVersion,
		Type:          interactiveType,
		ID:            uuid.NewString(),
		InteractiveData: InteractiveData{
			BID: QuickReplyBID,
			Data: InteractiveBody{
				QuickReply:        qr,
				Version:           interactiveVersion,
				RequestIdentifier: uuid.NewString(),
			},
		},
	}, nil
}

// DecodeQuickReply reads a YAML quick reply definition.
func DecodeQuickReply(r io.Reader) (QuickReply, error) {
	var qr QuickReply
	if err := yaml.NewDecoder(r).Decode(&qr); err != nil {
		return QuickReply{}, fmt.Errorf("failed to decode quick reply YAML: %w", err)
	}
	return qr, qr.Validate()
}

// LoadQuickReply reads a YAML quick reply definition from path.
func LoadQuickReply(path string) (QuickReply, error) {
	clean := filepath.Clean(path)
	// #nosec G304 -- path is supplied by the operator on the command line
	f, err := os.Open(clean)
	if err != nil {
		return QuickReply{}, err
	}
	defer func() { _ = f.Close() }()
	return DecodeQuickReply(f)
}
