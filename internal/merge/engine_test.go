package merge

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestEngine_Run_ResolvesEveryRequestInOrder(t *testing.T) {
	f := newFixture()
	s1, s2 := f.scope("Any"), f.scope("Unit")
	b := f.module("DaggerModule2")
	f.u.Contribute(b, s1)
	f.u.Contribute(f.module("DaggerModule3"), s1, b)
	f.u.Contribute(f.module("DaggerModule4"), s2)

	var targets []MemberRef
	for i := 0; i < 20; i++ {
		scope := s1
		if i%2 == 1 {
			scope = s2
		}
		target := f.merge("Merged" + strings.Repeat("x", i))
		targets = append(targets, target)
		f.u.Request(MergeRequest{Target: target, Scope: scope})
	}

	res, err := NewEngine(WithWorkers(3)).Run(context.Background(), f.u)
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Empty(t, res.Diagnostics)
	require.Len(t, res.Outcomes, 20)

	for i, o := range res.Outcomes {
		assert.Equal(t, targets[i], o.Request.Target)
		assert.True(t, o.Generate)
		if i%2 == 0 {
			assert.Equal(t, []string{"DaggerModule3"}, f.names(o.Set.Includes))
		} else {
			assert.Equal(t, []string{"DaggerModule4"}, f.names(o.Set.Includes))
		}
	}
}

func TestEngine_Run_InvalidContributionIsDroppedAndBlocksGeneration(t *testing.T) {
	f := newFixture()
	s := f.scope("Any")
	private := f.declare(Symbol{Name: "Hidden", Module: true, Visibility: VisibilityPrivate})
	f.u.Contribute(private, s)
	f.u.Contribute(f.module("Visible"), s)
	f.u.Request(MergeRequest{Target: f.merge("DaggerModule1"), Scope: s})

	res, err := NewEngine().Run(context.Background(), f.u)
	require.NoError(t, err)

	assert.False(t, res.OK())
	require.Len(t, res.Errors(), 1)
	assert.Equal(t, KindInvalidContribution, res.Errors()[0].Kind)

	require.Len(t, res.Outcomes, 1)
	assert.Equal(t, []string{"Visible"}, f.names(res.Outcomes[0].Set.Includes))
	assert.False(t, res.Outcomes[0].Generate, "a failed step emits nothing")
	assert.Equal(t, 1, res.Index.Len())
}

func TestEngine_Run_ConflictOnlyMarksItsOwnRequest(t *testing.T) {
	f := newFixture()
	s := f.scope("Any")
	f.u.Contribute(f.module("DaggerModule2"), s)
	bad := f.declare(Symbol{Name: "Conflicted", Merge: true, Module: true})
	f.u.Request(MergeRequest{Target: bad, Scope: s})
	f.u.Request(MergeRequest{Target: f.merge("Fine"), Scope: s})

	res, err := NewEngine().Run(context.Background(), f.u)
	require.NoError(t, err)
	require.Len(t, res.Outcomes, 2)

	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, KindConflictingAnnotations, res.Diagnostics[0].Kind)
	// Resolution still happens for both; the step as a whole is failed.
	assert.Equal(t, []string{"DaggerModule2"}, f.names(res.Outcomes[1].Set.Includes))
	assert.False(t, res.Outcomes[0].Generate)
	assert.False(t, res.Outcomes[1].Generate)
}

func TestEngine_Run_ReportsCycles(t *testing.T) {
	f := newFixture()
	s := f.scope("Any")
	a, b := f.module("A"), f.module("B")
	f.u.Contribute(a, s, b)
	f.u.Contribute(b, s, a)
	f.u.Request(MergeRequest{Target: f.merge("DaggerModule1"), Scope: s})

	res, err := NewEngine().Run(context.Background(), f.u)
	require.NoError(t, err)
	require.Len(t, res.Cycles, 1)
	assert.False(t, res.OK())
	assert.Empty(t, res.Outcomes[0].Set.Includes)
}

func TestEngine_Run_CheckIncludes(t *testing.T) {
	f := newFixture()
	s := f.scope("Any")
	boolean := f.declare(Symbol{Name: "Boolean"})
	f.u.Request(MergeRequest{Target: f.merge("DaggerModule1"), Scope: s, ExplicitIncludes: []MemberRef{boolean}})

	res, err := NewEngine().Run(context.Background(), f.u)
	require.NoError(t, err)
	assert.True(t, res.OK())

	res, err = NewEngine(WithCheckIncludes(true)).Run(context.Background(), f.u)
	require.NoError(t, err)
	assert.False(t, res.OK())
	assert.Equal(t, KindInvalidInclude, res.Diagnostics[0].Kind)
}

func TestEngine_Run_Progress(t *testing.T) {
	f := newFixture()
	s := f.scope("Any")
	f.u.Request(MergeRequest{Target: f.merge("Good"), Scope: s})
	f.u.Request(MergeRequest{Target: f.declare(Symbol{Name: "Bad", Merge: true, Module: true}), Scope: s})

	var (
		mu     sync.Mutex
		events = map[string][]ProgressStatus{}
	)
	_, err := NewEngine(WithProgress(func(ev ProgressEvent) {
		mu.Lock()
		defer mu.Unlock()
		events[ev.Target] = append(events[ev.Target], ev.Status)
	})).Run(context.Background(), f.u)
	require.NoError(t, err)

	assert.Equal(t, []ProgressStatus{ProgressPending, ProgressWorking, ProgressComplete}, events["Good"])
	assert.Equal(t, []ProgressStatus{ProgressPending, ProgressWorking, ProgressFailed}, events["Bad"])
}

func TestEngine_Run_CanceledContext(t *testing.T) {
	f := newFixture()
	f.u.Request(MergeRequest{Target: f.merge("DaggerModule1"), Scope: f.scope("Any")})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := NewEngine().Run(ctx, f.u)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
}

func TestEngine_Run_NilUniverse(t *testing.T) {
	_, err := NewEngine().Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNilUniverse)
}

func TestEngine_Run_Logs(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	f := newFixture()
	f.u.Request(MergeRequest{Target: f.merge("DaggerModule1"), Scope: f.scope("Any")})

	_, err := NewEngine(WithLogger(zap.New(core))).Run(context.Background(), f.u)
	require.NoError(t, err)

	entries := logs.FilterMessage("merge resolution finished").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), entries[0].ContextMap()["requests"])
}

func TestFormatProgress(t *testing.T) {
	tests := []struct {
		ev   ProgressEvent
		want string
	}{
		{ProgressEvent{Target: "M", Status: ProgressPending}, "(pending)"},
		{ProgressEvent{Target: "M", Status: ProgressWorking}, "M..."},
		{ProgressEvent{Target: "M", Scope: "S", Status: ProgressComplete}, "M merged from S"},
		{ProgressEvent{Target: "M", Status: ProgressFailed, Message: "boom"}, "failed: boom"},
		{ProgressEvent{Target: "M", Status: "weird"}, "unknown status"},
	}
	for _, tt := range tests {
		assert.Contains(t, FormatProgress(tt.ev), tt.want)
	}
}
