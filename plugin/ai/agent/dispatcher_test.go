package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	aierrors "github.com/hrygo/rundown/internal/errors"
	"github.com/hrygo/rundown/plugin/ai/router"
	aischedule "github.com/hrygo/rundown/plugin/ai/schedule"
	"github.com/hrygo/rundown/plugin/ai/session"
	"github.com/hrygo/rundown/server/service/calendar"
)

// Monday 2025-06-02 08:00 UTC.
var testNow = time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)

func on(day, h, m int) time.Time {
	return time.Date(2025, 6, day, h, m, 0, 0, time.UTC)
}

// scriptedCompletion answers extraction prompts by schema and everything
// else with general.
type scriptedCompletion struct {
	mu      sync.Mutex
	replies map[aischedule.Kind]string
	general string
	prompts []string
}

var scriptedSchemas = []aischedule.Schema{
	aischedule.AddSchema,
	aischedule.SuggestSchema,
	aischedule.CandidateEventSchema,
	aischedule.DateSchema,
}

func (s *scriptedCompletion) Complete(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	for _, schema := range scriptedSchemas {
		if strings.HasPrefix(prompt, schema.Instruction) {
			if reply, ok := s.replies[schema.Kind]; ok {
				return reply, nil
			}
			return "", errors.New("no scripted reply")
		}
	}
	return s.general, nil
}

func (s *scriptedCompletion) lastPrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.prompts) == 0 {
		return ""
	}
	return s.prompts[len(s.prompts)-1]
}

// MockCalendar implements calendar.Calendar for failure paths.
type MockCalendar struct {
	mock.Mock
}

func (m *MockCalendar) ListUpcoming(ctx context.Context, since time.Time, max int) ([]calendar.Event, error) {
	args := m.Called(ctx, since, max)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]calendar.Event), args.Error(1)
}

func (m *MockCalendar) Create(ctx context.Context, event calendar.NewEvent) (calendar.EventRef, error) {
	args := m.Called(ctx, event)
	return args.Get(0).(calendar.EventRef), args.Error(1)
}

func (m *MockCalendar) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newTestDispatcher(cal calendar.Calendar, completion *scriptedCompletion, opts ...Option) *Dispatcher {
	if completion == nil {
		return NewDispatcher(cal, nil, time.UTC, opts...)
	}
	return NewDispatcher(cal, completion, time.UTC, opts...)
}

func TestDispatcher_HelpAndUsage(t *testing.T) {
	d := newTestDispatcher(calendar.NewMemoryCalendar(), nil)

	reply, _, eff := d.HandleMessage(context.Background(), nil, "@help", testNow)
	assert.Equal(t, helpText, reply)
	assert.Equal(t, router.IntentHelp, eff.Intent)

	tests := []struct {
		input string
		want  string
	}{
		{"@add", replyAddUsage},
		{"@remove   ", replyRemoveUsage},
		{"@check", replyCheckUsage},
		{"@when", replyCheckUsage},
		{"@SUGGEST", replySuggestUsage},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			reply, _, eff := d.HandleMessage(context.Background(), nil, tt.input, testNow)
			assert.Equal(t, tt.want, reply)
			assert.False(t, eff.Failed())
		})
	}
}

func TestDispatcher_Add(t *testing.T) {
	cal := calendar.NewMemoryCalendar()
	completion := &scriptedCompletion{replies: map[aischedule.Kind]string{
		aischedule.KindAdd: "```json\n{\"title\": \"Lunch with Sam\", \"date\": \"2025-06-06 12:30\", \"location\": \"Nopa\", \"details\": null}\n```",
	}}
	d := newTestDispatcher(cal, completion)

	reply, _, eff := d.HandleMessage(context.Background(), nil,
		"@add lunch with Sam at Nopa friday 12:30 https://mail.google.com/mail/u/0/#inbox/FMfcgz123", testNow)

	require.Len(t, eff.Created, 1)
	assert.Equal(t, "Added to calendar: **Lunch with Sam**\nFriday, June 06, 2025 at 12:30 PM\nLocation: Nopa\n[View in Calendar](memory://events/evt-1)", reply)

	events := cal.All()
	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, "Lunch with Sam", ev.Title)
	assert.Equal(t, on(6, 12, 30), ev.Start)
	assert.Equal(t, on(6, 13, 30), ev.End)
	assert.Equal(t, "Nopa", ev.Location)
	assert.Equal(t, "Created via RunDown Chatbot\n\nLocation: Nopa\n\nEmail ID: FMfcgz123", ev.Description)
}

func TestDispatcher_AddMalformedExtractionUsesDefaults(t *testing.T) {
	cal := calendar.NewMemoryCalendar()
	completion := &scriptedCompletion{replies: map[aischedule.Kind]string{
		aischedule.KindAdd: "Sorry, I can't help with that.",
	}}
	d := newTestDispatcher(cal, completion)

	reply, _, eff := d.HandleMessage(context.Background(), nil, "@add dentist", testNow)
	assert.False(t, eff.Failed())
	require.Len(t, eff.Created, 1)
	assert.True(t, strings.HasPrefix(reply, "Added to calendar: **New Event**\nTuesday, June 03, 2025 at 09:00 AM"))

	events := cal.All()
	require.Len(t, events, 1)
	assert.Equal(t, on(3, 9, 0), events[0].Start)
}

func TestDispatcher_AddCalendarFailure(t *testing.T) {
	cal := new(MockCalendar)
	cal.On("Create", mock.Anything, mock.Anything).
		Return(calendar.EventRef{}, aierrors.CollaboratorUnavailable("calendar", errors.New("connection refused")))
	d := newTestDispatcher(cal, nil)

	reply, _, eff := d.HandleMessage(context.Background(), nil, "@add standup tomorrow 10am", testNow)
	assert.Equal(t, replyAddFailed, reply)
	assert.True(t, aierrors.IsCode(eff.Err, aierrors.ErrCodeCollaboratorUnavailable))
	assert.Empty(t, eff.Created)

	cal.AssertCalled(t, "Create", mock.Anything, mock.MatchedBy(func(ev calendar.NewEvent) bool {
		return ev.Start.Equal(on(3, 10, 0)) && ev.Reminder
	}))
}

func meetingCalendar() *calendar.MemoryCalendar {
	return calendar.NewMemoryCalendar(
		calendar.Event{Title: "Team Meeting", Start: on(3, 10, 0), End: on(3, 11, 0)},
		calendar.Event{Title: "meeting with Bob", Start: on(4, 10, 0), End: on(4, 11, 0)},
		calendar.Event{Title: "Board MEETING", Start: on(5, 10, 0), End: on(5, 11, 0)},
		calendar.Event{Title: "Lunch", Start: on(3, 12, 0), End: on(3, 13, 0)},
	)
}

func TestDispatcher_RemoveAmbiguousDeletesNothing(t *testing.T) {
	cal := meetingCalendar()
	d := newTestDispatcher(cal, nil)

	reply, _, eff := d.HandleMessage(context.Background(), nil, "@remove meeting", testNow)

	assert.True(t, strings.HasPrefix(reply, "I found multiple matching events. Please be more specific or use the event ID:\n\n"))
	assert.Contains(t, reply, "1. **Team Meeting** - Tuesday, June 03 at 10:00 AM (ID: `evt-1`)")
	assert.Contains(t, reply, "2. **meeting with Bob**")
	assert.Contains(t, reply, "3. **Board MEETING**")
	assert.NotContains(t, reply, "4.")
	assert.NotContains(t, reply, "more events")
	assert.True(t, strings.HasSuffix(reply, "\n\nTo delete a specific event, use:\n`@remove EVENT_ID`"))
	assert.Empty(t, eff.Deleted)
	assert.Len(t, cal.All(), 4)
}

func TestDispatcher_Remove(t *testing.T) {
	cal := meetingCalendar()
	d := newTestDispatcher(cal, nil)
	ctx := context.Background()

	reply, _, eff := d.HandleMessage(ctx, nil, "@remove lunch", testNow)
	assert.Equal(t, "✅ Deleted event: **Lunch**", reply)
	assert.Equal(t, []string{"evt-4"}, eff.Deleted)

	reply, _, eff = d.HandleMessage(ctx, nil, "@remove evt-2", testNow)
	assert.Equal(t, replyDeletedByID, reply)
	assert.Equal(t, []string{"evt-2"}, eff.Deleted)

	reply, _, eff = d.HandleMessage(ctx, nil, "@remove dentist", testNow)
	assert.Equal(t, "I couldn't find any events matching 'dentist'. Please try a different search or use @list to see your upcoming events.", reply)
	assert.Empty(t, eff.Deleted)
	assert.Len(t, cal.All(), 2)
}

func TestDispatcher_RemoveTruncatesCandidates(t *testing.T) {
	var seed []calendar.Event
	for i := 0; i < 7; i++ {
		seed = append(seed, calendar.Event{Title: "Sync", Start: on(3+i, 10, 0), End: on(3+i, 10, 30)})
	}
	d := newTestDispatcher(calendar.NewMemoryCalendar(seed...), nil)

	reply, _, _ := d.HandleMessage(context.Background(), nil, "@remove sync", testNow)
	assert.Contains(t, reply, "5. **Sync**")
	assert.NotContains(t, reply, "6. **Sync**")
	assert.Contains(t, reply, "\n... and 2 more events.")
}

func TestDispatcher_RemoveCalendarDown(t *testing.T) {
	cal := new(MockCalendar)
	cal.On("Delete", mock.Anything, "standup").
		Return(aierrors.CollaboratorUnavailable("calendar", context.DeadlineExceeded))
	d := newTestDispatcher(cal, nil)

	reply, _, eff := d.HandleMessage(context.Background(), nil, "@remove standup", testNow)
	assert.Equal(t, "I couldn't reach your calendar while trying to remove that event. Please try again in a moment.", reply)
	assert.True(t, eff.Failed())
	cal.AssertNotCalled(t, "ListUpcoming", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatcher_List(t *testing.T) {
	ctx := context.Background()

	reply, _, _ := newTestDispatcher(calendar.NewMemoryCalendar(), nil).HandleMessage(ctx, nil, "@list", testNow)
	assert.Equal(t, replyNoUpcoming, reply)

	seed := []calendar.Event{{Title: "Yesterday", Start: on(1, 10, 0), End: on(1, 11, 0)}}
	for i := 1; i <= 10; i++ {
		seed = append(seed, calendar.Event{Title: "Event", Start: on(2+i, 9, 0), End: on(2+i, 10, 0)})
	}
	reply, _, _ = newTestDispatcher(calendar.NewMemoryCalendar(seed...), nil).HandleMessage(ctx, nil, "@list", testNow)

	assert.True(t, strings.HasPrefix(reply, "📅 **Upcoming Events**\n\n1. **Event** - Tuesday, June 03 at 09:00 AM\n"))
	assert.Contains(t, reply, "8. **Event** - Tuesday, June 10 at 09:00 AM\n")
	assert.NotContains(t, reply, "9. **Event**")
	assert.NotContains(t, reply, "Yesterday")
	assert.True(t, strings.HasSuffix(reply, "\n... and 2 more events."))
}

func hourlyEvents(n int) []calendar.Event {
	seed := make([]calendar.Event, 0, n)
	for i := 0; i < n; i++ {
		start := testNow.Add(time.Duration(i+1) * time.Hour)
		seed = append(seed, calendar.Event{Title: fmt.Sprintf("ev %d", i), Start: start, End: start.Add(30 * time.Minute)})
	}
	return seed
}

func TestDispatcher_ListAndRemoveSeeWholeCalendar(t *testing.T) {
	ctx := context.Background()
	cal := calendar.NewMemoryCalendar(hourlyEvents(150)...)
	d := newTestDispatcher(cal, nil)

	reply, _, _ := d.HandleMessage(ctx, nil, "@list", testNow)
	assert.True(t, strings.HasSuffix(reply, "\n... and 142 more events."), reply)

	// "ev 14" also matches ev 140 to ev 149.
	reply, _, eff := d.HandleMessage(ctx, nil, "@remove ev 14", testNow)
	assert.True(t, strings.HasPrefix(reply, "I found multiple matching events."), reply)
	assert.Contains(t, reply, "\n... and 6 more events.")
	assert.Empty(t, eff.Deleted)
	assert.Len(t, cal.All(), 150)
}

func TestDispatcher_ListReportsLowerBoundWhenCapped(t *testing.T) {
	d := newTestDispatcher(calendar.NewMemoryCalendar(hourlyEvents(searchFetchLimit+50)...), nil)

	reply, _, _ := d.HandleMessage(context.Background(), nil, "@list", testNow)
	assert.True(t, strings.HasSuffix(reply, fmt.Sprintf("\n... and at least %d more events.", searchFetchLimit-listLimit)), reply)
}

func TestDispatcher_Check(t *testing.T) {
	ctx := context.Background()

	t.Run("free day", func(t *testing.T) {
		d := newTestDispatcher(calendar.NewMemoryCalendar(), nil)
		reply, _, _ := d.HandleMessage(ctx, nil, "@check tomorrow", testNow)
		assert.Equal(t, "### Availability for Tuesday, June 03, 2025\n\nYou have no events scheduled for this day. You're completely free from 9:00 AM to 8:00 PM.", reply)
	})

	t.Run("booked day", func(t *testing.T) {
		d := newTestDispatcher(calendar.NewMemoryCalendar(
			calendar.Event{Title: "Review", Start: on(3, 13, 0), End: on(3, 14, 0)},
			calendar.Event{Title: "Standup", Start: on(3, 10, 0), End: on(3, 11, 0)},
			calendar.Event{Title: "Other day", Start: on(4, 10, 0), End: on(4, 11, 0)},
		), nil)
		reply, _, _ := d.HandleMessage(ctx, nil, "@when tomorrow", testNow)
		assert.Equal(t, "### Availability for Tuesday, June 03, 2025\n\n"+
			"**Booked Events:**\n"+
			"- Standup: 10:00 AM - 11:00 AM\n"+
			"- Review: 01:00 PM - 02:00 PM\n"+
			"\n**Free Time Slots:**\n"+
			"1. 09:00 AM - 10:00 AM\n"+
			"2. 11:00 AM - 01:00 PM\n"+
			"3. 02:00 PM - 08:00 PM\n", reply)
	})

	t.Run("fully booked", func(t *testing.T) {
		d := newTestDispatcher(calendar.NewMemoryCalendar(
			calendar.Event{Title: "Offsite", Start: on(3, 8, 0), End: on(3, 21, 0)},
		), nil)
		reply, _, _ := d.HandleMessage(ctx, nil, "@check tomorrow", testNow)
		assert.True(t, strings.HasSuffix(reply, "**Free Time Slots:**\n"+replyNoFreeSlots))
	})
}

func suggestCompletion(reply string) *scriptedCompletion {
	return &scriptedCompletion{replies: map[aischedule.Kind]string{aischedule.KindSuggestTime: reply}}
}

func TestDispatcher_SuggestThenConfirm(t *testing.T) {
	cal := calendar.NewMemoryCalendar(calendar.Event{Title: "Standup", Start: on(3, 9, 0), End: on(3, 10, 0)})
	d := newTestDispatcher(cal, suggestCompletion(`{"title": "Coffee break", "target_date": "tomorrow", "duration": 30, "preference": null}`))
	ctx := context.Background()

	reply, state, eff := d.HandleMessage(ctx, session.NewState("s1"), "@suggest time for a coffee break tomorrow", testNow)
	assert.Equal(t, "### Time Suggestion\n\nI suggest scheduling **Coffee break** on **Tuesday, June 03, 2025** from **10:00 AM** to **10:30 AM**.\n\nWould you like me to add this to your calendar?", reply)
	assert.Empty(t, eff.Created)
	require.True(t, state.AwaitingConfirmation())
	assert.Equal(t, on(3, 10, 0), state.Pending.Start)
	assert.Equal(t, 30*time.Minute, state.Pending.Duration())
	assert.Equal(t, "s1", state.SessionID)

	reply, state, eff = d.HandleMessage(ctx, state, "Yes!", testNow.Add(time.Minute))
	assert.Equal(t, "✅ Added to calendar: **Coffee break**\n📅 Tuesday, June 03, 2025 at 10:00 AM\n🔗 [View in Calendar](memory://events/evt-2)", reply)
	require.Len(t, eff.Created, 1)
	assert.False(t, state.AwaitingConfirmation())

	events := cal.All()
	require.Len(t, events, 2)
	assert.Equal(t, "Coffee break", events[1].Title)
	assert.Equal(t, on(3, 10, 0), events[1].Start)
	assert.Equal(t, on(3, 10, 30), events[1].End)
	assert.True(t, strings.HasPrefix(events[1].Description, "Created via RunDown Chatbot\n\nScheduled on 2025-06-02 08:01:00"))

	reply, _, eff = d.HandleMessage(ctx, state, "yes", testNow.Add(2*time.Minute))
	assert.Equal(t, replyNothingPending, reply)
	assert.Empty(t, eff.Created)
	assert.Len(t, cal.All(), 2)
}

func TestDispatcher_SuggestPreference(t *testing.T) {
	d := newTestDispatcher(calendar.NewMemoryCalendar(),
		suggestCompletion(`{"title": "Design review", "target_date": "thursday", "duration": "45 minutes", "preference": "afternoon"}`))

	_, state, _ := d.HandleMessage(context.Background(), nil, "@suggest design review thursday afternoon", testNow)
	require.True(t, state.AwaitingConfirmation())
	assert.Equal(t, on(5, 12, 0), state.Pending.Start)
	assert.Equal(t, on(5, 12, 45), state.Pending.End)
}

func TestDispatcher_SuggestUnknownPreferenceIgnored(t *testing.T) {
	d := newTestDispatcher(calendar.NewMemoryCalendar(),
		suggestCompletion(`{"title": "Walk", "target_date": "tomorrow", "duration": 60, "preference": "whenever"}`))

	_, state, eff := d.HandleMessage(context.Background(), nil, "@suggest a walk tomorrow", testNow)
	assert.False(t, eff.Failed())
	require.True(t, state.AwaitingConfirmation())
	assert.Equal(t, on(3, 9, 0), state.Pending.Start)
}

func TestDispatcher_SuggestNoSlot(t *testing.T) {
	cal := calendar.NewMemoryCalendar(calendar.Event{Title: "Offsite", Start: on(3, 9, 0), End: on(3, 20, 0)})
	d := newTestDispatcher(cal, suggestCompletion(`{"title": "Coffee break", "target_date": "tomorrow", "duration": 30}`))

	reply, state, _ := d.HandleMessage(context.Background(), nil, "@suggest coffee tomorrow", testNow)
	assert.Equal(t, "I couldn't find a suitable time for a 30-minute 'Coffee break' on Tuesday, June 03, 2025. Would you like to check a different day?", reply)
	assert.False(t, state.AwaitingConfirmation())
}

func TestDispatcher_SuggestBadDuration(t *testing.T) {
	d := newTestDispatcher(calendar.NewMemoryCalendar(),
		suggestCompletion(`{"title": "Hackathon", "target_date": "tomorrow", "duration": 900}`))

	reply, state, eff := d.HandleMessage(context.Background(), nil, "@suggest a 15 hour hackathon tomorrow", testNow)
	assert.Equal(t, "Please give a duration between 1 and 660 minutes.", reply)
	assert.True(t, aierrors.IsCode(eff.Err, aierrors.ErrCodeValidation))
	assert.False(t, state.AwaitingConfirmation())
}

func TestDispatcher_SuggestOverwritesPending(t *testing.T) {
	d := newTestDispatcher(calendar.NewMemoryCalendar(),
		suggestCompletion(`{"title": "Walk", "target_date": "friday", "duration": 60}`))
	state := &session.State{Pending: &session.PendingSuggestion{Title: "Old", Start: on(3, 9, 0), End: on(3, 10, 0), CreatedAt: testNow}}

	_, next, _ := d.HandleMessage(context.Background(), state, "@suggest walk friday", testNow)
	require.True(t, next.AwaitingConfirmation())
	assert.Equal(t, "Walk", next.Pending.Title)
	assert.Equal(t, "Old", state.Pending.Title, "input state is not modified")
}

func TestDispatcher_Decline(t *testing.T) {
	cal := calendar.NewMemoryCalendar()
	d := newTestDispatcher(cal, nil)
	state := &session.State{Pending: &session.PendingSuggestion{Title: "Walk", Start: on(3, 9, 0), End: on(3, 10, 0), CreatedAt: testNow}}

	reply, next, eff := d.HandleMessage(context.Background(), state, "No.", testNow)
	assert.Equal(t, replyDeclined, reply)
	assert.Equal(t, router.IntentDecline, eff.Intent)
	assert.False(t, next.AwaitingConfirmation())
	assert.Empty(t, cal.All())

	reply, _, _ = d.HandleMessage(context.Background(), next, "cancel", testNow)
	assert.Equal(t, replyNothingPending, reply)
}

func TestDispatcher_ExpiredSuggestion(t *testing.T) {
	cal := calendar.NewMemoryCalendar()
	d := newTestDispatcher(cal, nil)
	state := &session.State{Pending: &session.PendingSuggestion{Title: "Walk", Start: on(3, 9, 0), End: on(3, 10, 0), CreatedAt: testNow}}

	reply, next, _ := d.HandleMessage(context.Background(), state, "yes", testNow.Add(31*time.Minute))
	assert.Equal(t, replyNothingPending, reply)
	assert.False(t, next.AwaitingConfirmation())
	assert.Empty(t, cal.All())
}

func TestDispatcher_ConfirmFailureClearsPending(t *testing.T) {
	cal := new(MockCalendar)
	cal.On("Create", mock.Anything, mock.Anything).
		Return(calendar.EventRef{}, aierrors.CollaboratorUnavailable("calendar", errors.New("boom")))
	d := newTestDispatcher(cal, nil)
	state := &session.State{Pending: &session.PendingSuggestion{Title: "Walk", Start: on(3, 9, 0), End: on(3, 10, 0), CreatedAt: testNow}}

	reply, next, eff := d.HandleMessage(context.Background(), state, "ok", testNow)
	assert.Equal(t, "I couldn't reach your calendar while trying to add the event to your calendar. Please try again in a moment.", reply)
	assert.True(t, eff.Failed())
	assert.False(t, next.AwaitingConfirmation())
}

func TestDispatcher_General(t *testing.T) {
	cal := calendar.NewMemoryCalendar(calendar.Event{Title: "Dentist", Start: on(3, 15, 0), End: on(3, 16, 0)})
	mailbox := calendar.NewMemoryMailbox(calendar.MailMessage{ID: "m1", Subject: "Quarterly report due", ReceivedAt: on(1, 9, 0)})
	completion := &scriptedCompletion{general: "  You have a dentist appointment tomorrow.  "}
	d := newTestDispatcher(cal, completion, WithMailbox(mailbox))
	ctx := context.Background()
	pending := &session.State{Pending: &session.PendingSuggestion{Title: "Walk", Start: on(3, 9, 0), End: on(3, 10, 0), CreatedAt: testNow}}

	reply, next, eff := d.HandleMessage(ctx, pending, "what's on tomorrow?", testNow)
	assert.Equal(t, "You have a dentist appointment tomorrow.", reply)
	assert.Equal(t, router.IntentGeneral, eff.Intent)
	assert.True(t, next.AwaitingConfirmation(), "unrelated text keeps the suggestion")
	prompt := completion.lastPrompt()
	assert.True(t, strings.HasPrefix(prompt, "You are an AI assistant for RunDown"))
	assert.Contains(t, prompt, "- Dentist: Tuesday, June 03 at 03:00 PM")
	assert.Contains(t, prompt, "User Query: what's on tomorrow?")

	_, _, _ = d.HandleMessage(ctx, nil, "any news in my @email?", testNow)
	prompt = completion.lastPrompt()
	assert.Contains(t, prompt, "- Quarterly report due (Jun 01)")
	assert.NotContains(t, prompt, "Dentist")

	completion.general = "   "
	reply, _, _ = d.HandleMessage(ctx, nil, "hello", testNow)
	assert.Equal(t, replyGeneralFailed, reply)

	reply, _, _ = newTestDispatcher(cal, nil).HandleMessage(ctx, nil, "hello", testNow)
	assert.Equal(t, replyGeneralFailed, reply)
}

func TestClassifyError(t *testing.T) {
	assert.Equal(t, ErrorClassTransient, ClassifyError(aierrors.CollaboratorUnavailable("calendar", nil)))
	assert.Equal(t, ErrorClassTransient, ClassifyError(aierrors.Timeout("slow")))
	assert.Equal(t, ErrorClassTransient, ClassifyError(errors.New("unknown")))
	assert.Equal(t, ErrorClassCanceled, ClassifyError(aierrors.ContextCanceled(context.Canceled)))
	assert.Equal(t, ErrorClassPermanent, ClassifyError(aierrors.Validation("bad")))
	assert.Equal(t, "canceled", ErrorClassCanceled.String())
}
