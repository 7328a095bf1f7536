package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/seedit/seedit-challenge/internal/challenge"
	"github.com/seedit/seedit-challenge/internal/errors"
	"github.com/seedit/seedit-challenge/internal/publication"
)

func textQuestions(payloads ...string) []challenge.Question {
	out := make([]challenge.Question, len(payloads))
	for i, p := range payloads {
		out[i] = challenge.Question{Kind: challenge.KindText, Payload: p}
	}
	return out
}

func TestVerification_Message(t *testing.T) {
	ok := Verification{Success: true}
	require.NoError(t, ok.Err())
	require.Equal(t, "challenge verification succeeded", ok.Message())

	failed := Verification{Reason: "wrong answer", Errors: []string{"answer 1 is wrong", "answer 2 is wrong"}}
	require.ErrorIs(t, failed.Err(), errors.ErrVerificationFailed)
	require.Equal(t, "challenge verification failed: wrong answer: answer 1 is wrong, answer 2 is wrong", failed.Message())

	bare := Verification{}
	require.Equal(t, "challenge verification failed: rejected", bare.Message())
	require.True(t, errors.IsUserFacing(bare.Err()))
}

func TestPublication_RecordsAndForwards(t *testing.T) {
	var forwarded []string
	p := NewPublication(publication.Publication{Kind: publication.KindVote}, func(_ *Publication, answers []string) error {
		forwarded = answers
		return nil
	})

	require.Equal(t, "vote", p.PublicationKind())
	require.Equal(t, "vote", challenge.KindOf(p))

	require.NoError(t, p.PublishChallengeAnswers([]string{"a", "b"}))
	require.Equal(t, []string{"a", "b"}, forwarded)
	require.Equal(t, [][]string{{"a", "b"}}, p.Submissions())

	p.Close()
	require.ErrorIs(t, p.PublishChallengeAnswers([]string{"c"}), errors.ErrPublicationClosed)
	require.Len(t, p.Submissions(), 1)
}

func TestPublication_VerifyNeverBlocks(t *testing.T) {
	p := NewPublication(publication.Publication{}, nil)

	for i := 0; i < verificationBuffer; i++ {
		require.True(t, p.Verify(Verification{Success: true}))
	}
	require.False(t, p.Verify(Verification{}), "a full channel drops the outcome")

	p.Close()
	p.Close()
	require.False(t, p.Verify(Verification{}))

	count := 0
	for range p.Verifications() {
		count++
	}
	require.Equal(t, verificationBuffer, count)
}

func TestInbox_RunPreservesOrder(t *testing.T) {
	c := challenge.NewCoordinator()
	inbox := NewInbox(4, nil)
	ctx := context.Background()

	pubs := make([]*Publication, 3)
	for i := range pubs {
		pubs[i] = NewPublication(publication.Publication{}, nil)
		require.NoError(t, inbox.Send(ctx, Request{Questions: textQuestions("q"), Publication: pubs[i]}))
	}
	require.Equal(t, 3, inbox.Len())
	inbox.Close()

	require.NoError(t, inbox.Run(ctx, c))
	require.Equal(t, 3, c.Size())
	for i, a := range c.Pending() {
		require.Same(t, pubs[i], a.Publication())
	}

	require.ErrorIs(t, inbox.Send(ctx, Request{}), ErrInboxClosed)
}

func TestInbox_RunSkipsInvalidRequests(t *testing.T) {
	c := challenge.NewCoordinator()
	inbox := NewInbox(0, nil)
	ctx := context.Background()

	var delivered []string
	require.NoError(t, inbox.Send(ctx, Request{Publication: NewPublication(publication.Publication{}, nil)}))
	require.NoError(t, inbox.Send(ctx, Request{
		Questions:   textQuestions("q"),
		Publication: NewPublication(publication.Publication{}, nil),
		Delivered:   func(a *challenge.Announcement) { delivered = append(delivered, a.ID()) },
	}))
	inbox.Close()

	require.NoError(t, inbox.Run(ctx, c))
	require.Equal(t, 1, c.Size())
	require.Len(t, delivered, 1)
}

func TestInbox_RunStopsOnCancelAndClosedCoordinator(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	inbox := NewInbox(1, nil)

	errCh := make(chan error, 1)
	go func() { errCh <- inbox.Run(ctx, challenge.NewCoordinator()) }()
	cancel()
	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	closed := challenge.NewCoordinator()
	closed.Close()
	inbox = NewInbox(1, nil)
	require.NoError(t, inbox.Send(context.Background(), Request{
		Questions:   textQuestions("q"),
		Publication: NewPublication(publication.Publication{}, nil),
	}))
	require.ErrorIs(t, inbox.Run(context.Background(), closed), errors.ErrCoordinatorClosed)
}

func TestInbox_SendHonoursContext(t *testing.T) {
	inbox := NewInbox(1, nil)
	req := Request{Questions: textQuestions("q")}
	require.NoError(t, inbox.Send(context.Background(), req))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, inbox.Send(ctx, req), context.DeadlineExceeded)
}
