package service

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"product-catalog-api/internal/model"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

// AuditService appends one JSON document per line to the audit file.
// A nil *AuditService is valid and records nothing.
type AuditService struct {
	filePath string
	mu       sync.Mutex
	now      func() time.Time
}

func NewAuditService(filePath string) (*AuditService, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return nil, fmt.Errorf("prepare audit directory: %w", err)
	}

	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("initialize audit file: %w", err)
	}
	_ = f.Close()

	return &AuditService{filePath: filePath, now: time.Now}, nil
}

func (s *AuditService) Log(action string, actor model.AuditActor, status string, resource string, before any, after any, errText string) {
	if s == nil {
		return
	}

	entry := model.AuditEntry{
		Action:     action,
		OccurredAt: s.now().UTC().Format(time.RFC3339Nano),
		Actor:      actor,
		Status:     status,
		Resource:   resource,
		Before:     before,
		After:      after,
		Error:      errText,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		slog.Warn("audit entry not encodable", "action", action, "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		slog.Warn("audit file not writable", "file", s.filePath, "error", err)
		return
	}
	defer f.Close()

	_, _ = f.Write(append(data, '\n'))
}

// Query returns matching entries newest first, paginated.
func (s *AuditService) Query(query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	if s == nil {
		return []model.AuditEntry{}, model.Meta{Page: 1, Limit: defaultAuditLimit}, nil
	}

	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = defaultAuditLimit
	}
	if query.Limit > maxAuditLimit {
		query.Limit = maxAuditLimit
	}

	action := strings.ToLower(strings.TrimSpace(query.Action))
	status := strings.ToLower(strings.TrimSpace(query.Status))
	actor := strings.TrimSpace(query.Actor)

	s.mu.Lock()
	f, err := os.Open(s.filePath)
	if err != nil {
		s.mu.Unlock()
		return nil, model.Meta{}, fmt.Errorf("open audit file: %w", err)
	}

	items := make([]model.AuditEntry, 0, 128)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var entry model.AuditEntry
		if json.Unmarshal([]byte(line), &entry) != nil {
			continue
		}

		if action != "" && strings.ToLower(entry.Action) != action {
			continue
		}
		if status != "" && strings.ToLower(entry.Status) != status {
			continue
		}
		if actor != "" && entry.Actor.Username != actor {
			continue
		}

		items = append(items, entry)
	}
	scanErr := scanner.Err()
	_ = f.Close()
	s.mu.Unlock()

	if scanErr != nil {
		return nil, model.Meta{}, fmt.Errorf("read audit file: %w", scanErr)
	}

	// Lines are appended in time order.
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}

	total := len(items)
	start := total
	if query.Page-1 < (total+query.Limit-1)/query.Limit {
		start = (query.Page - 1) * query.Limit
	}
	end := start + min(query.Limit, total-start)

	totalPages := 0
	if total > 0 {
		totalPages = (total + query.Limit - 1) / query.Limit
	}

	meta := model.Meta{Page: query.Page, Limit: query.Limit, Total: total, TotalPages: totalPages}
	return items[start:end], meta, nil
}
