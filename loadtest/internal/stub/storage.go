package stub

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/KasumiMercury/primind-session-timeline/internal/infra/studyapi"
)

type Cohort struct {
	StartTime time.Time
	EndTime   time.Time
	Count     int
	EventID   string
}

type StudyStorage struct {
	mu           sync.RWMutex
	timelines    map[string]*studyapi.TimelineResponse // studyID -> timeline
	participants map[string][]string                   // studyID -> participant ids
	events       map[string][]studyapi.EventItem       // participantID -> events
	adherence    map[string][]studyapi.AdherenceItem   // participantID -> records
}

func NewStudyStorage() *StudyStorage {
	return &StudyStorage{
		timelines:    make(map[string]*studyapi.TimelineResponse),
		participants: make(map[string][]string),
		events:       make(map[string][]studyapi.EventItem),
		adherence:    make(map[string][]studyapi.AdherenceItem),
	}
}

func (s *StudyStorage) Reset(studyID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked(studyID)
}

func (s *StudyStorage) resetLocked(studyID string) {
	for _, id := range s.participants[studyID] {
		delete(s.events, id)
		delete(s.adherence, id)
	}
	delete(s.participants, studyID)
	delete(s.timelines, studyID)
}

func (s *StudyStorage) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timelines = make(map[string]*studyapi.TimelineResponse)
	s.participants = make(map[string][]string)
	s.events = make(map[string][]studyapi.EventItem)
	s.adherence = make(map[string][]studyapi.AdherenceItem)
}

// Seed replaces the study and enrolls every cohort, returning the
// generated participant ids in enrollment order.
func (s *StudyStorage) Seed(studyID string, timeline *studyapi.TimelineResponse, cohorts []*Cohort) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetLocked(studyID)
	s.timelines[studyID] = timeline

	ids := make([]string, 0)
	for _, cohort := range cohorts {
		ids = append(ids, s.enrollLocked(studyID, cohort)...)
	}
	s.participants[studyID] = ids
	return ids
}

func (s *StudyStorage) enrollLocked(studyID string, cohort *Cohort) []string {
	if cohort.Count == 0 {
		return nil
	}

	span := cohort.EndTime.Sub(cohort.StartTime)
	if span <= 0 {
		span = time.Minute
	}
	interval := span / time.Duration(cohort.Count)
	if interval == 0 {
		interval = time.Second
	}

	ids := make([]string, 0, cohort.Count)
	for i := 0; i < cohort.Count; i++ {
		at := cohort.StartTime.Add(time.Duration(i) * interval)
		id := generateParticipantID(studyID, cohort.StartTime, cohort.EventID, i)
		s.events[id] = []studyapi.EventItem{{EventID: cohort.EventID, Timestamp: at}}
		ids = append(ids, id)
	}
	return ids
}

func (s *StudyStorage) Timeline(studyID string) (*studyapi.TimelineResponse, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tl, ok := s.timelines[studyID]
	return tl, ok
}

func (s *StudyStorage) Events(participantID string) ([]studyapi.EventItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events, ok := s.events[participantID]
	return append([]studyapi.EventItem(nil), events...), ok
}

// AdherencePage returns records ordered by event timestamp together with
// the participant's total.
func (s *StudyStorage) AdherencePage(participantID string, offset, size int) ([]studyapi.AdherenceItem, int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.events[participantID]; !ok {
		return nil, 0, false
	}
	records := s.adherence[participantID]
	total := len(records)
	if offset >= total {
		return []studyapi.AdherenceItem{}, total, true
	}
	end := min(offset+size, total)
	return append([]studyapi.AdherenceItem(nil), records[offset:end]...), total, true
}

func (s *StudyStorage) AddAdherence(participantID string, items []studyapi.AdherenceItem) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[participantID]; !ok {
		return false
	}
	records := append(s.adherence[participantID], items...)
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].EventTimestamp.Before(records[j].EventTimestamp)
	})
	s.adherence[participantID] = records
	return true
}

func generateParticipantID(studyID string, cohortStart time.Time, eventID string, index int) string {
	input := fmt.Sprintf("%s-%s-%s-%d", studyID, cohortStart.Format("20060102150405"), eventID, index)
	hash := sha256.Sum256([]byte(input))
	hashStr := hex.EncodeToString(hash[:8])
	return fmt.Sprintf("%s-%s-%s", studyID, cohortStart.Format("20060102150405"), hashStr)
}
