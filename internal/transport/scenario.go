package transport

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/seedit/seedit-challenge/internal/challenge"
	"github.com/seedit/seedit-challenge/internal/errors"
	"github.com/seedit/seedit-challenge/internal/publication"
)

// Scenario is a scripted exchange with the network, loaded from YAML.
//
//	account:
//	  author: {address: alice.eth}
//	comments:
//	  - cid: QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG
//	    subplebbit_address: memes.eth
//	    content: first!
//	publications:
//	  - name: reply
//	    publication: {subplebbit_address: memes.eth, parent_cid: Qm..., content: hi}
//	    rounds:
//	      - questions: [{type: text/plain, challenge: "2+2?"}]
//	        answers: ["4"]
type Scenario struct {
	Account      publication.Account   `yaml:"account"`
	Comments     []publication.Comment `yaml:"comments"`
	Publications []ScenarioPublication `yaml:"publications"`
}

// ScenarioPublication is one publication and the rounds issued for it.
type ScenarioPublication struct {
	Name        string                  `yaml:"name"`
	Publication publication.Publication `yaml:"publication"`
	Rounds      []Round                 `yaml:"rounds"`
}

// Round is one challenge issued for a publication. Later rounds are issued
// only when an earlier one is answered wrongly.
type Round struct {
	Questions []challenge.Question `yaml:"questions"`
	// Answers are the expected answers, compared case-insensitively. When
	// empty, any submission passes.
	Answers []string `yaml:"answers,omitempty"`
	// Reason is reported when the round fails.
	Reason string `yaml:"reason,omitempty"`
}

// Accepts reports whether answers pass the round.
func (r Round) Accepts(answers []string) bool {
	if len(r.Answers) == 0 {
		return true
	}
	if len(answers) != len(r.Answers) {
		return false
	}
	for i, want := range r.Answers {
		if !strings.EqualFold(strings.TrimSpace(answers[i]), strings.TrimSpace(want)) {
			return false
		}
	}
	return true
}

// mismatches lists the one-based positions of wrong answers.
func (r Round) mismatches(answers []string) []string {
	var out []string
	for i, want := range r.Answers {
		got := ""
		if i < len(answers) {
			got = answers[i]
		}
		if !strings.EqualFold(strings.TrimSpace(got), strings.TrimSpace(want)) {
			out = append(out, fmt.Sprintf("answer %d is wrong", i+1))
		}
	}
	return out
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read scenario %s", path)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a YAML scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "parse scenario")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks that the scenario can be replayed.
func (s *Scenario) Validate() error {
	if len(s.Publications) == 0 {
		return errors.NewValidationError("scenario has no publications").WithField("publications")
	}
	for i, c := range s.Comments {
		if err := publication.ValidateCID(c.CID); err != nil {
			return errors.NewValidationError("comment cid is invalid").
				WithField(fmt.Sprintf("comments[%d].cid", i)).
				WithValue(c.CID).
				WithCause(err)
		}
	}

	seen := make(map[string]bool, len(s.Publications))
	for i, p := range s.Publications {
		field := fmt.Sprintf("publications[%d]", i)
		if p.Name == "" {
			return errors.NewValidationError("publication needs a name").WithField(field + ".name")
		}
		if seen[p.Name] {
			return errors.NewValidationError("duplicate publication name").
				WithField(field + ".name").
				WithValue(p.Name)
		}
		seen[p.Name] = true

		if err := p.Publication.Validate(); err != nil {
			return errors.Wrapf(err, "%s (%s)", field, p.Name)
		}
		if len(p.Rounds) == 0 {
			return errors.NewValidationError("publication needs at least one round").WithField(field + ".rounds")
		}
		for j, r := range p.Rounds {
			rf := fmt.Sprintf("%s.rounds[%d]", field, j)
			if len(r.Questions) == 0 {
				return errors.NewValidationError("round needs at least one question").WithField(rf + ".questions")
			}
			if len(r.Answers) != 0 && len(r.Answers) != len(r.Questions) {
				return errors.NewValidationError("expected answers must match the questions").
					WithField(rf + ".answers").
					WithValue(len(r.Answers))
			}
		}
	}
	return nil
}

// Lookup finds a scenario comment by cid.
func (s *Scenario) Lookup(cid string) (*publication.Comment, bool) {
	for i := range s.Comments {
		if s.Comments[i].CID == cid {
			return &s.Comments[i], true
		}
	}
	return nil, false
}

// targetOf returns the comment p acts on, or nil.
func (s *Scenario) targetOf(p *publication.Publication) any {
	ref := p.CommentCID
	if publication.TypeOf(p) == publication.KindReply {
		ref = p.ParentCID
	}
	if ref == "" {
		return nil
	}
	if c, ok := s.Lookup(ref); ok {
		return c
	}
	return nil
}
