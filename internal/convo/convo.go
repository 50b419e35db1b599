// Package convo answers small-talk queries from canned responses so greetings
// and the like never spend a generation call.
package convo

import (
	"math/rand"
	"regexp"
)

type rule struct {
	patterns  []*regexp.Regexp
	responses []string
}

// Handler matches a user query against conversational patterns and picks one
// of the prepared HTML responses for the first matching category.
type Handler struct {
	rules []rule
}

func NewHandler() *Handler {
	return &Handler{rules: []rule{
		{
			patterns: compile(
				`(?i)^\s*(hello|hi|hey|good\s+(morning|afternoon|evening))\b`,
				`(?i)^\s*greetings\b`,
			),
			responses: []string{
				`<h4>Hello!</h4><p>I am the admissions advisor for the university. How can I help you today?</p>`,
				`<h4>Hi there!</h4><p>Welcome to the admissions advice service. What would you like to know about majors, scores or tuition?</p>`,
			},
		},
		{
			patterns: compile(
				`(?i)\b(goodbye|bye|see\s+you|farewell)\b`,
			),
			responses: []string{
				`<h4>Goodbye!</h4><p>Good luck with your application. Come back any time you have more questions.</p>`,
			},
		},
		{
			patterns: compile(
				`(?i)\b(thank\s*you|thanks)\b`,
			),
			responses: []string{
				`<h4>You're welcome!</h4><p>Happy to help. Is there anything else you would like to ask about admissions?</p>`,
			},
		},
		{
			patterns: compile(
				`(?i)\bwho\s+are\s+you\b`,
				`(?i)\bwhat\s+is\s+your\s+name\b`,
			),
			responses: []string{
				`<h4>About me</h4><p>I am an AI admissions assistant. I answer questions about majors, admission scores, tuition fees and application procedures based on the university's official documents.</p>`,
			},
		},
		{
			patterns: compile(
				`(?i)\bwhat\s+can\s+you\s+do\b`,
				`(?i)\bhow\s+can\s+you\s+help\b`,
			),
			responses: []string{
				`<h4>What I can help with</h4><ul><li>Majors and departments</li><li>Admission score history</li><li>Tuition fees</li><li>Application procedures and deadlines</li></ul><p>Ask me anything from that list.</p>`,
			},
		},
	}}
}

// Respond returns a canned HTML reply for query, or "" when the query should
// go to the generation model.
func (h *Handler) Respond(query string) string {
	for _, r := range h.rules {
		for _, p := range r.patterns {
			if p.MatchString(query) {
				return r.responses[rand.Intn(len(r.responses))]
			}
		}
	}
	return ""
}

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(e))
	}
	return out
}
