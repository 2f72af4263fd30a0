package extractor

import (
	"encoding/json"
	"fmt"
)

// Satisfaction is the rating assigned to a conversation.
type Satisfaction string

const (
	SatisfactionBad     Satisfaction = "Bad"
	SatisfactionAverage Satisfaction = "Average"
	SatisfactionGood    Satisfaction = "Good"
)

// Record is the structured classification of one conversation.
type Record struct {
	NameOfEmployee string       `json:"name_of_employee"`
	Satisfaction   Satisfaction `json:"satisfaction"`
}

type ErrorKind string

const (
	KindService           ErrorKind = "service"
	KindEmptyReply        ErrorKind = "empty_reply"
	KindMalformedOutput   ErrorKind = "malformed_output"
	KindEmptyConversation ErrorKind = "empty_conversation"
)

// ExtractionError is a recoverable failure to obtain a Record. RawResponse
// holds the model output when one was received.
type ExtractionError struct {
	Kind        ErrorKind `json:"kind"`
	Message     string    `json:"error"`
	RawResponse *string   `json:"raw_response"`
	Err         error     `json:"-"`
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Result holds exactly one of Record or Error.
type Result struct {
	Record *Record
	Error  *ExtractionError
}

func (r Result) OK() bool { return r.Record != nil }

// MarshalJSON renders the record fields on success and
// {error, kind, raw_response} on failure.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.Record != nil {
		return json.Marshal(r.Record)
	}
	return json.Marshal(r.Error)
}

func failure(kind ErrorKind, msg string, raw *string, err error) Result {
	return Result{Error: &ExtractionError{Kind: kind, Message: msg, RawResponse: raw, Err: err}}
}
