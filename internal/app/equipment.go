package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/claude/fitscan/internal/datauri"
	"github.com/claude/fitscan/internal/models"
	"github.com/claude/fitscan/internal/recognition"
)

// ScanResult is a recognition result plus the inventory record created
// from it, if it was saved.
type ScanResult struct {
	*recognition.Result
	Equipment *models.EquipmentRecord `json:"equipment,omitempty"`
}

// Scan identifies the equipment in image. With save set, a positive result
// is added to the inventory. Every attempt is written to the scan log.
func (s *Service) Scan(ctx context.Context, userID, image string, save bool) (*ScanResult, error) {
	img, err := datauri.Parse(image)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	start := s.now()
	res, err := s.recog.Recognize(ctx, img)
	elapsed := s.now().Sub(start)
	s.logScan(userID, res, err, elapsed)
	if err != nil {
		return nil, err
	}

	out := &ScanResult{Result: res}
	if res.Detected && save {
		rec := s.saveEquipment(ctx, res.Record(userID, ""), &img)
		out.Equipment = &rec
	}
	return out, nil
}

func (s *Service) logScan(userID string, res *recognition.Result, scanErr error, elapsed time.Duration) {
	ms := int(elapsed.Milliseconds())
	l := models.ScanLog{UserID: userID, DurationMs: &ms}
	switch {
	case scanErr != nil:
		l.Status = models.ScanError
		msg := scanErr.Error()
		l.ErrorMessage = &msg
	case res.Detected:
		l.Status = models.ScanDetected
		name := res.EquipmentName
		l.EquipmentName = &name
	default:
		l.Status = models.ScanNotDetected
	}

	s.metrics.CounterScans.WithLabelValues(l.Status).Inc()
	s.metrics.HistScanDuration.Observe(elapsed.Seconds())

	ctx, cancel := contextWithTimeout()
	defer cancel()
	s.store.LogScan(ctx, l)
}

// EquipmentInput is a manually added or confirmed inventory record.
type EquipmentInput struct {
	Name           string                    `json:"equipmentName"`
	Category       string                    `json:"category"`
	MuscleGroups   []string                  `json:"muscleGroups"`
	Description    string                    `json:"description"`
	Exercises      []models.ExerciseTemplate `json:"exercises"`
	Tips           []string                  `json:"tips"`
	CommonMistakes []string                  `json:"commonMistakes"`
	ImageBase64    string                    `json:"imageBase64,omitempty"`
}

// AddEquipment stores a record in the user's inventory. The optional image
// is persisted through the image store.
func (s *Service) AddEquipment(ctx context.Context, userID string, in EquipmentInput) (*models.EquipmentRecord, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, invalid("equipmentName is required")
	}
	var img *datauri.DataURI
	if in.ImageBase64 != "" {
		parsed, err := datauri.Parse(in.ImageBase64)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		img = &parsed
	}

	for i := range in.Exercises {
		if d, ok := models.NormalizeDifficulty(string(in.Exercises[i].Difficulty)); ok {
			in.Exercises[i].Difficulty = d
		}
	}

	rec := models.EquipmentRecord{
		UserID:         userID,
		Name:           strings.TrimSpace(in.Name),
		Category:       in.Category,
		MuscleGroups:   in.MuscleGroups,
		Description:    in.Description,
		Detected:       true,
		Exercises:      in.Exercises,
		Tips:           in.Tips,
		CommonMistakes: in.CommonMistakes,
	}
	rec = s.saveEquipment(ctx, rec, img)
	return &rec, nil
}

func (s *Service) saveEquipment(ctx context.Context, rec models.EquipmentRecord, img *datauri.DataURI) models.EquipmentRecord {
	if img != nil {
		ref, err := s.images.Put(ctx, rec.UserID, *img)
		if err != nil {
			s.log.Warn("image not stored", "user", rec.UserID, "error", err)
		} else {
			rec.ImageURL = ref
		}
	}
	rec = s.store.AddEquipment(ctx, rec)
	s.log.Info("equipment added", "user", rec.UserID, "equipment", rec.Name, "id", rec.ID)
	return rec
}

// ListEquipment returns the user's inventory.
func (s *Service) ListEquipment(ctx context.Context, userID string) []models.EquipmentRecord {
	return s.store.Equipment(ctx, userID)
}

// DeleteEquipment removes one record. Plans already composed from it keep
// their own copy of its exercises.
func (s *Service) DeleteEquipment(ctx context.Context, userID string, id uuid.UUID) error {
	if !s.store.DeleteEquipment(ctx, userID, id) {
		return ErrNotFound
	}
	return nil
}

// ScanLogs returns the user's recent recognition attempts.
func (s *Service) ScanLogs(ctx context.Context, userID string, limit int) []models.ScanLog {
	return s.store.ScanLogs(ctx, userID, limit)
}
