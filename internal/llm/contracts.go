package llm

import (
	"context"
	"errors"
)

// Keys of the metadata record, in prompt order.
const (
	KeySiteID   = "site_id"
	KeyTitle    = "title"
	KeyReceiver = "receiver"
	KeySender   = "sender"
	KeyAddress  = "address"
	KeyReadable = "readable"
)

// RecordKeys is the exact key set a well-formed record carries.
var RecordKeys = []string{KeySiteID, KeyTitle, KeyReceiver, KeySender, KeyAddress, KeyReadable}

// ErrMalformedRecord means the model answered, but not with exactly the six string keys.
var ErrMalformedRecord = errors.New("malformed metadata record")

// Record is the normalized shape we want from the model. "none" marks an absent value.
type Record struct {
	SiteID   string `json:"site_id"`
	Title    string `json:"title"`
	Receiver string `json:"receiver"`
	Sender   string `json:"sender"`
	Address  string `json:"address"`
	Readable string `json:"readable"`
}

// NoneRecord is the default shape used when the model cannot be reached.
func NoneRecord() Record {
	return Record{
		SiteID:   "none",
		Title:    "none",
		Receiver: "none",
		Sender:   "none",
		Address:  "none",
		Readable: "none",
	}
}

// Get returns the value stored under key.
func (r *Record) Get(key string) string {
	switch key {
	case KeySiteID:
		return r.SiteID
	case KeyTitle:
		return r.Title
	case KeyReceiver:
		return r.Receiver
	case KeySender:
		return r.Sender
	case KeyAddress:
		return r.Address
	case KeyReadable:
		return r.Readable
	}
	return ""
}

// Set stores value under key; unknown keys are ignored.
func (r *Record) Set(key, value string) {
	switch key {
	case KeySiteID:
		r.SiteID = value
	case KeyTitle:
		r.Title = value
	case KeyReceiver:
		r.Receiver = value
	case KeySender:
		r.Sender = value
	case KeyAddress:
		r.Address = value
	case KeyReadable:
		r.Readable = value
	}
}

// MetadataOracle is the model capability the pipeline depends on.
type MetadataOracle interface {
	// QueryRecord asks for the full six-key record. A reply with the wrong key
	// set fails with ErrMalformedRecord; transport failures return other errors.
	QueryRecord(ctx context.Context, prompt string) (Record, error)
	// QueryField asks a narrow question and returns the raw trimmed answer.
	QueryField(ctx context.Context, prompt string) (string, error)
}
