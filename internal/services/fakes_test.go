package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/yoockh/yoointerview/internal/cache"
	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/providers/llm"
	"github.com/yoockh/yoointerview/internal/utils"
)

type fakeSessionRepo struct {
	mu            sync.Mutex
	docs          map[string]*models.InterviewSession
	telemetry     map[string][]bson.M
	finalizeCalls int
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{docs: map[string]*models.InterviewSession{}, telemetry: map[string][]bson.M{}}
}

func (r *fakeSessionRepo) Create(_ context.Context, s *models.InterviewSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.docs[s.SessionID] = &cp
	return nil
}

func (r *fakeSessionRepo) GetBySessionID(_ context.Context, id string) (*models.InterviewSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *d
	cp.History = append([]models.HistoryEntry(nil), d.History...)
	return &cp, nil
}

func (r *fakeSessionRepo) LatestByResume(_ context.Context, resumeID string) (*models.InterviewSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var best *models.InterviewSession
	for _, d := range r.docs {
		if d.ResumeID == resumeID && (best == nil || d.StartedAt.After(best.StartedAt)) {
			best = d
		}
	}
	if best == nil {
		return nil, utils.ErrNotFound
	}
	cp := *best
	return &cp, nil
}

func (r *fakeSessionRepo) PushHistory(_ context.Context, id string, e models.HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[id].History = append(r.docs[id].History, e)
	return nil
}

func (r *fakeSessionRepo) PushStageProgress(_ context.Context, id string, sp models.StageProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[id].StageProgression = append(r.docs[id].StageProgression, sp)
	return nil
}

func (r *fakeSessionRepo) PushTelemetry(_ context.Context, _ string, field string, ev bson.M) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.telemetry[field] = append(r.telemetry[field], ev)
	return nil
}

func (r *fakeSessionRepo) SetTermination(_ context.Context, id, reason string, n int, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := r.docs[id]
	d.TerminatedReason = reason
	d.ViolationCount = n
	d.TerminatedAt = &at
	return nil
}

func (r *fakeSessionRepo) Finalize(_ context.Context, id string, res models.FinalResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finalizeCalls++
	d := r.docs[id]
	ended := res.EndedAt
	d.EndedAt = &ended
	d.AverageScore = res.AverageScore
	d.Summary = res.Summary
	d.StageBreakdown = res.StageBreakdown
	d.Recommendation = res.Recommendation
	d.ReportPath = res.ReportPath
	return nil
}

func (r *fakeSessionRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[id]; !ok {
		return utils.ErrNotFound
	}
	delete(r.docs, id)
	return nil
}

func (r *fakeSessionRepo) StageAnalytics(context.Context, string) ([]models.StageAnalytics, error) {
	return []models.StageAnalytics{{Stage: "introduction", AvgScore: 5, QuestionCount: 2, Scores: []int{4, 6}}}, nil
}

func (r *fakeSessionRepo) OverallAnalytics(context.Context, string) (*models.OverallAnalytics, error) {
	avg := 5.0
	return &models.OverallAnalytics{TotalInterviews: 1, AvgScore: &avg, CompletionRate: 1}, nil
}

func (r *fakeSessionRepo) finalizes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finalizeCalls
}

type fakeJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*models.JobProfile
}

func (r *fakeJobRepo) GetByID(_ context.Context, id string) (*models.JobProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (r *fakeJobRepo) MarkInterviewDone(_ context.Context, jobID, resumeID, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.jobs[jobID].FindResume(resumeID)
	if e == nil {
		return utils.ErrNotFound
	}
	e.InterviewDone = true
	e.SessionID = sessionID
	return nil
}

func (r *fakeJobRepo) ClearInterview(_ context.Context, jobID, resumeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[jobID]
	if !ok {
		return utils.ErrNotFound
	}
	if e := j.FindResume(resumeID); e != nil {
		e.InterviewDone = false
		e.SessionID = ""
	}
	return nil
}

func (r *fakeJobRepo) entry(jobID, resumeID string) models.ScoredResume {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.jobs[jobID].FindResume(resumeID)
}

type fakeScoreRepo struct {
	mu   sync.Mutex
	rows []models.ScoreRecord
}

func (r *fakeScoreRepo) Insert(_ context.Context, rec *models.ScoreRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, *rec)
	return nil
}

func (r *fakeScoreRepo) ListBySession(_ context.Context, id string) ([]models.ScoreRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ScoreRecord
	for _, row := range r.rows {
		if row.SessionID == id {
			out = append(out, row)
		}
	}
	return out, nil
}

type fakeCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
	dels []string
}

func newFakeCache() *fakeCache { return &fakeCache{data: map[string][]byte{}} }

func (c *fakeCache) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) SetJSON(_ context.Context, key string, val any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	c.data[key] = b
	c.sets++
	return nil
}

func (c *fakeCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
		c.dels = append(c.dels, k)
	}
	return nil
}

var _ cache.Cache = (*fakeCache)(nil)

type fakeClaimer struct {
	claimed bool
	err     error
}

func (c fakeClaimer) Claim(context.Context, string, time.Duration) (bool, error) {
	return c.claimed, c.err
}

// scriptedGenerator answers by prompt purpose.
type scriptedGenerator struct {
	question       string
	summary        string
	recommendation string
	err            error
}

func (g *scriptedGenerator) Generate(_ context.Context, msgs []llm.Message) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	all := ""
	for _, m := range msgs {
		all += m.Content
	}
	switch {
	case strings.Contains(all, "EXACTLY one word"):
		return g.recommendation, nil
	case strings.Contains(all, "comprehensive but concise summary"):
		return g.summary, nil
	default:
		return g.question, nil
	}
}

type fakeConn struct {
	in     chan string
	closed chan struct{}
	once   sync.Once

	mu  sync.Mutex
	out []map[string]any
}

func newFakeConn(msgs ...string) *fakeConn {
	c := &fakeConn{in: make(chan string, len(msgs)+1), closed: make(chan struct{})}
	for _, m := range msgs {
		c.in <- m
	}
	return c
}

// hangUp makes reads fail once the queued messages are consumed.
// push queues a message after the driver has started.
func (c *fakeConn) push(m string) { c.in <- m }

func (c *fakeConn) hangUp() *fakeConn {
	close(c.in)
	return c
}

func (c *fakeConn) ReadJSON(v any) error {
	select {
	case m, ok := <-c.in:
		if !ok {
			return io.EOF
		}
		// decode the way gorilla's ReadJSON does: a truncated frame is io.ErrUnexpectedEOF
		err := json.NewDecoder(strings.NewReader(m)).Decode(v)
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return err
	case <-c.closed:
		return errors.New("connection closed")
	}
}

func (c *fakeConn) WriteJSON(v any) error {
	select {
	case <-c.closed:
		return errors.New("connection closed")
	default:
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	c.mu.Lock()
	c.out = append(c.out, m)
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) written() []map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]map[string]any(nil), c.out...)
}

func (c *fakeConn) ofType(typ string) []map[string]any {
	var out []map[string]any
	for _, m := range c.written() {
		if m["type"] == typ {
			out = append(out, m)
		}
	}
	return out
}
