// Package masterresume loads master_resume.json as opaque nested data: the
// core never interprets its fields beyond formatting them into prompt text
// for the Scorer and the Résumé Tailor.
package masterresume

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cmendes/jobhunter/internal/common"
)

// Resume is deliberately loose — personal/summary/experience/certifications
// /education/skills are all opaque nested JSON. The only named field the
// pipeline reads is Personal.FullName, in String().
type Resume struct {
	Personal struct {
		FullName string `json:"full_name"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		Location string `json:"location"`
	} `json:"personal"`
	raw map[string]any
}

// Load reads master_resume.json. A missing or unreadable file is Fatal.
func Load(path string) (*Resume, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, common.Fatal(common.NewAppError("CONFIG_ERROR", "read master resume", err))
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, common.Fatal(common.NewAppError("CONFIG_ERROR", "parse master resume", err))
	}
	var r Resume
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, common.Fatal(common.NewAppError("CONFIG_ERROR", "parse master resume", err))
	}
	r.raw = raw
	return &r, nil
}

// FormattedText renders the entire opaque document as indented JSON for
// embedding verbatim into a Scorer/Tailor prompt.
func (r *Resume) FormattedText() string {
	b, err := json.MarshalIndent(r.raw, "", "  ")
	if err != nil {
		return ""
	}
	return string(b)
}

func (r *Resume) String() string {
	return fmt.Sprintf("Resume{%s}", r.Personal.FullName)
}
