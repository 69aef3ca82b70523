package game

import (
	"strings"

	"github.com/trentd187/spot-the-same/internal/models"
	"gorm.io/gorm"
)

const (
	joinCodeLength = 6
	// Letters and digits without the easily confused 0/O and 1/I.
	joinCodeChars  = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	joinCodeTries  = 10
)

func (s *Service) newJoinCode() string {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()

	code := make([]byte, joinCodeLength)
	for i := range code {
		code[i] = joinCodeChars[s.rng.Intn(len(joinCodeChars))]
	}
	return string(code)
}

// allocateJoinCode returns a code no existing game uses. The unique index on
// games.join_code still rejects a code taken by a concurrent insert.
func (s *Service) allocateJoinCode(tx *gorm.DB) (string, error) {
	for i := 0; i < joinCodeTries; i++ {
		code := s.newJoinCode()
		var count int64
		if err := tx.Model(&models.Game{}).Where("join_code = ?", code).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", ErrNoJoinCode
}

func normalizeJoinCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
