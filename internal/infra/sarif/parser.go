package sarif

import (
	"encoding/json"
	"os"
	"strings"
)

// Separator joins individual result messages in the flat summary.
const Separator = " \n ----------------- \n "

// Minimal SARIF shape: only the fields the summary needs.
type report struct {
	Runs []run `json:"runs"`
}

type run struct {
	Results []result `json:"results"`
}

type result struct {
	Message message `json:"message"`
}

type message struct {
	Text string `json:"text"`
}

type Parser struct{}

func NewParser() Parser { return Parser{} }

// Summarize flattens runs[].results[].message.text into one string.
// Best-effort by design: a missing file or malformed document yields "".
func (Parser) Summarize(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}

	var doc report
	if err := json.Unmarshal(data, &doc); err != nil {
		return ""
	}

	var msgs []string
	for _, r := range doc.Runs {
		for _, res := range r.Results {
			if res.Message.Text != "" {
				msgs = append(msgs, res.Message.Text)
			}
		}
	}
	return strings.Join(msgs, Separator)
}
