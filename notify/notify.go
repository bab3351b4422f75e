// Package notify delivers analysis alerts and summaries to chat.
package notify

import "io"

const TimeFormat = "2006-01-02 03:04 PM"

// MessageData is the transport-neutral shape of an outgoing message.
type MessageData struct {
	Content         string
	Embeds          []EmbedData
	Files           []FileData
	MentionEveryone bool
}

type EmbedData struct {
	Title       string
	Description string
	Fields      []EmbedField
}

type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

// FileData attaches a generated document, such as a run report.
type FileData struct {
	Name   string
	Reader io.Reader
}

type Messager interface {
	SendMessage(data MessageData, chName string) (uint64, error)
}
