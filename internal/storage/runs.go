package storage

import (
	"time"

	"go.uber.org/zap"
)

// timeLayout is fixed-width so timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// RecordRun records one analysis run. Write failures are logged, not returned.
func (s *SQLiteStorage) RecordRun(run RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled || s.db == nil {
		return nil
	}

	query := `
		INSERT OR REPLACE INTO analysis_runs
			(id, provider, model, outcome, instruction_hash, image_count, event_count,
			 confidence, prompt_tokens, duration_ms, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		run.ID,
		run.Provider,
		run.Model,
		run.Outcome,
		run.InstructionHash,
		run.ImageCount,
		run.EventCount,
		run.Confidence,
		run.PromptTokens,
		run.Duration.Milliseconds(),
		run.Timestamp.UTC().Format(timeLayout),
	)
	if err != nil {
		s.logger.Warn("failed to record analysis run", zap.String("id", run.ID), zap.Error(err))
	}
	return nil
}

// GetRunHistory retrieves runs since a given time, newest first.
func (s *SQLiteStorage) GetRunHistory(since time.Time, limit int) ([]RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled || s.db == nil {
		return []RunRecord{}, nil
	}
	if limit <= 0 {
		limit = -1
	}

	query := `
		SELECT id, provider, model, outcome, instruction_hash, image_count, event_count,
		       confidence, prompt_tokens, duration_ms, timestamp
		FROM analysis_runs
		WHERE timestamp >= ?
		ORDER BY timestamp DESC
		LIMIT ?
	`

	rows, err := s.db.Query(query, since.UTC().Format(timeLayout), limit)
	if err != nil {
		s.logger.Warn("failed to query run history", zap.Error(err))
		return []RunRecord{}, nil
	}
	defer rows.Close()

	runs := []RunRecord{}
	for rows.Next() {
		var run RunRecord
		var durationMS int64
		var timestampStr string

		if err := rows.Scan(
			&run.ID,
			&run.Provider,
			&run.Model,
			&run.Outcome,
			&run.InstructionHash,
			&run.ImageCount,
			&run.EventCount,
			&run.Confidence,
			&run.PromptTokens,
			&durationMS,
			&timestampStr,
		); err != nil {
			s.logger.Warn("failed to scan run row", zap.Error(err))
			continue
		}

		run.Duration = time.Duration(durationMS) * time.Millisecond
		run.Timestamp, err = time.Parse(timeLayout, timestampStr)
		if err != nil {
			s.logger.Warn("failed to parse run timestamp", zap.String("value", timestampStr), zap.Error(err))
			continue
		}

		runs = append(runs, run)
	}

	return runs, nil
}

// Cleanup removes runs older than the retention period.
func (s *SQLiteStorage) Cleanup(retention time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled || s.db == nil {
		return nil
	}

	cutoff := time.Now().Add(-retention).UTC().Format(timeLayout)
	if _, err := s.db.Exec("DELETE FROM analysis_runs WHERE timestamp < ?", cutoff); err != nil {
		s.logger.Warn("failed to cleanup analysis_runs", zap.Error(err))
	}

	if _, err := s.db.Exec("VACUUM"); err != nil {
		s.logger.Warn("failed to vacuum database", zap.Error(err))
	}

	return nil
}
