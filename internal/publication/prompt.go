package publication

import (
	"fmt"
	"strings"
)

// Prompt is the display context rendered above a challenge question.
type Prompt struct {
	// Title names the community issuing the challenge.
	Title string
	// Subtitle describes what is being published.
	Subtitle string
}

// CommentLookup resolves a comment by cid. It returns false when the
// comment is not known locally.
type CommentLookup func(cid string) (*Comment, bool)

// DescribeOptions tunes Describe.
type DescribeOptions struct {
	// Target is the comment a vote or edit acts on, if already resolved.
	Target *Comment
	// Lookup resolves the parent of a reply, or the target when Target is nil.
	Lookup CommentLookup
	// PreviewLength caps content excerpts in runes. Zero means
	// DefaultPreviewLength.
	PreviewLength int
}

// Describe builds the prompt shown for a challenge issued to p.
func Describe(p *Publication, opts DescribeOptions) Prompt {
	if p == nil {
		return Prompt{Title: "challenge"}
	}
	max := opts.PreviewLength
	if max <= 0 {
		max = DefaultPreviewLength
	}

	community := p.ShortSubplebbitAddress
	if community == "" {
		community = ShortAddress(p.SubplebbitAddress)
	}
	prompt := Prompt{Title: "challenge from " + community}

	target := opts.Target
	if target == nil && p.CommentCID != "" && opts.Lookup != nil {
		target, _ = opts.Lookup(p.CommentCID)
	}

	var b strings.Builder
	switch TypeOf(p) {
	case KindVote:
		b.WriteString(VotePreview(p))
		b.WriteString(" ")
		writeFor(&b, "post", PreviewOfComment(target, max))
	case KindEdit:
		writeFor(&b, "edit", PreviewOfComment(target, max))
	case KindReply:
		parent := ShortCID(p.ParentCID)
		if opts.Lookup != nil {
			if c, ok := opts.Lookup(p.ParentCID); ok && c.Author.Address != "" {
				parent = "u/" + c.Author.DisplayAddress()
			}
		}
		writeFor(&b, "reply to "+parent, PreviewOf(p, max))
	default:
		writeFor(&b, "post", PreviewOf(p, max))
	}
	prompt.Subtitle = b.String()
	return prompt
}

func writeFor(b *strings.Builder, what, preview string) {
	b.WriteString("for ")
	b.WriteString(what)
	if preview != "" {
		fmt.Fprintf(b, ": %q", preview)
	}
}

// Counter renders the one-based position of a question, as in "2 of 3".
func Counter(index, total int) string {
	return fmt.Sprintf("%d of %d", index+1, total)
}
