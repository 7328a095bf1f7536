package publication

import (
	"strings"
	"unicode/utf8"

	"github.com/seedit/seedit-challenge/internal/errors"
)

// Kind is the type of a publication.
type Kind string

const (
	KindPost  Kind = "post"
	KindReply Kind = "reply"
	KindVote  Kind = "vote"
	KindEdit  Kind = "edit"
)

// ValidKinds returns every publication kind.
func ValidKinds() []Kind {
	return []Kind{KindPost, KindReply, KindVote, KindEdit}
}

func joinKinds(kinds []Kind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

// Author identifies who signed a publication.
type Author struct {
	Address      string `yaml:"address"`
	ShortAddress string `yaml:"short_address,omitempty"`
}

// DisplayAddress returns ShortAddress, deriving it from Address when unset.
func (a Author) DisplayAddress() string {
	if a.ShortAddress != "" {
		return a.ShortAddress
	}
	return ShortAddress(a.Address)
}

// Comment is an existing comment a publication acts on: the parent of a
// reply, or the target of a vote or edit.
type Comment struct {
	CID               string `yaml:"cid"`
	ParentCID         string `yaml:"parent_cid,omitempty"`
	SubplebbitAddress string `yaml:"subplebbit_address"`
	Title             string `yaml:"title,omitempty"`
	Content           string `yaml:"content,omitempty"`
	Link              string `yaml:"link,omitempty"`
	Author            Author `yaml:"author"`
}

// Publication is the signed content awaiting challenge verification.
type Publication struct {
	Kind                   Kind   `yaml:"kind,omitempty"`
	SubplebbitAddress      string `yaml:"subplebbit_address"`
	ShortSubplebbitAddress string `yaml:"short_subplebbit_address,omitempty"`
	Title                  string `yaml:"title,omitempty"`
	Content                string `yaml:"content,omitempty"`
	Link                   string `yaml:"link,omitempty"`
	// ParentCID is set on replies.
	ParentCID string `yaml:"parent_cid,omitempty"`
	// CommentCID is the comment a vote or edit applies to.
	CommentCID string `yaml:"comment_cid,omitempty"`
	// Vote is 1 (upvote), -1 (downvote) or 0 (cleared), for votes only.
	Vote   int    `yaml:"vote,omitempty"`
	Author Author `yaml:"author"`
}

// TypeOf returns p.Kind, inferring it from the populated fields when unset.
func TypeOf(p *Publication) Kind {
	if p == nil {
		return ""
	}
	if p.Kind != "" {
		return p.Kind
	}
	switch {
	case p.CommentCID != "" && p.Content == "" && p.Title == "":
		return KindVote
	case p.CommentCID != "":
		return KindEdit
	case p.ParentCID != "":
		return KindReply
	default:
		return KindPost
	}
}

// Validate checks the fields required for the publication's kind.
func (p *Publication) Validate() error {
	if p.SubplebbitAddress == "" {
		return errors.NewValidationError("subplebbit address is required").
			WithField("subplebbit_address")
	}
	switch TypeOf(p) {
	case KindPost:
		if p.Title == "" && p.Content == "" && p.Link == "" {
			return errors.NewValidationError("post needs a title, content or link").
				WithField("content")
		}
	case KindReply:
		if err := ValidateCID(p.ParentCID); err != nil {
			return errors.NewValidationError("reply parent is not a valid cid").
				WithField("parent_cid").
				WithValue(p.ParentCID).
				WithCause(err)
		}
	case KindVote:
		if err := ValidateCID(p.CommentCID); err != nil {
			return errors.NewValidationError("vote target is not a valid cid").
				WithField("comment_cid").
				WithValue(p.CommentCID).
				WithCause(err)
		}
		if p.Vote < -1 || p.Vote > 1 {
			return errors.NewValidationError("vote must be -1, 0 or 1").
				WithField("vote").
				WithValue(p.Vote)
		}
	case KindEdit:
		if err := ValidateCID(p.CommentCID); err != nil {
			return errors.NewValidationError("edit target is not a valid cid").
				WithField("comment_cid").
				WithValue(p.CommentCID).
				WithCause(err)
		}
	default:
		return errors.NewValidationError("unknown publication kind (valid: "+joinKinds(ValidKinds())+")").
			WithField("kind").
			WithValue(string(p.Kind))
	}
	return nil
}

// DefaultPreviewLength is the rune limit used for challenge prompts.
const DefaultPreviewLength = 50

// Preview returns a one-line excerpt of a comment-like value: its content,
// else its title, else its link, truncated to max runes.
func Preview(title, content, link string, max int) string {
	text := content
	if strings.TrimSpace(text) == "" {
		text = title
	}
	if strings.TrimSpace(text) == "" {
		text = link
	}
	text = strings.Join(strings.Fields(text), " ")
	return truncate(text, max)
}

// PreviewOf returns the preview text of the publication itself.
func PreviewOf(p *Publication, max int) string {
	if p == nil {
		return ""
	}
	return Preview(p.Title, p.Content, p.Link, max)
}

// PreviewOfComment returns the preview text of an existing comment.
func PreviewOfComment(c *Comment, max int) string {
	if c == nil {
		return ""
	}
	return Preview(c.Title, c.Content, c.Link, max)
}

// VotePreview describes a vote's direction, or "" for other kinds.
func VotePreview(p *Publication) string {
	if TypeOf(p) != KindVote {
		return ""
	}
	switch p.Vote {
	case 1:
		return "upvote"
	case -1:
		return "downvote"
	default:
		return "remove vote"
	}
}

func truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	if max <= 3 {
		return string(runes[:max])
	}
	return strings.TrimRight(string(runes[:max-3]), " ") + "..."
}

// Account is the local identity publications are signed with.
type Account struct {
	Name   string `yaml:"name"`
	Author Author `yaml:"author"`
}

// Sign stamps the account's author onto p unless p already carries one.
func (a Account) Sign(p *Publication) {
	if p == nil || p.Author.Address != "" {
		return
	}
	p.Author = a.Author
}
