package generation

import (
	"fmt"
	"strings"
)

const (
	DefaultTopic  = "grounding for teens"
	DefaultFormat = "carousel"
)

// Request is the body of POST /api/generate. Missing fields fall back to the defaults.
type Request struct {
	Topic  string `json:"topic" binding:"omitempty,max=200"`
	Format string `json:"format" binding:"omitempty,max=40"`
}

func (r Request) WithDefaults() Request {
	if strings.TrimSpace(r.Topic) == "" {
		r.Topic = DefaultTopic
	}
	if strings.TrimSpace(r.Format) == "" {
		r.Format = DefaultFormat
	}
	return r
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

var systemPrompt = strings.Join([]string{
	"You help licensed clinicians create educational mental-health content.",
	"Tone: warm, validating, plain language. ~6th grade reading level.",
	"No diagnosis/treatment instructions. Include a short non-crisis disclaimer.",
	"Avoid PHI. Use inclusive, non-stigmatizing language. Keep bullets tight.",
}, "\n")

// BuildMessages renders the system and user turns for one request.
func BuildMessages(r Request) []Message {
	r = r.WithDefaults()

	user := fmt.Sprintf(`Make a %s about: %s.
Return concise, numbered sections. If carousel, give 7 short slides with optional alt-text notes.
End with a one-line educational disclaimer and crisis resource example (e.g., 988 in the U.S.).`, r.Format, r.Topic)

	return []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: user},
	}
}
