package state

import (
	"fmt"

	"github.com/google/uuid"
)

// BattleRecord summarizes one resolved battle for the round's report.
type BattleRecord struct {
	ID              uuid.UUID `json:"id"`
	Round           int       `json:"round"`
	Territory       string    `json:"territory"`
	Attacker        string    `json:"attacker"`
	Defender        string    `json:"defender"`
	Result          string    `json:"result"`
	AttackerLostTUV int       `json:"attacker_lost_tuv"`
	DefenderLostTUV int       `json:"defender_lost_tuv"`
}

// BattleRecords keeps battle records grouped by round.
type BattleRecords struct {
	byRound map[int][]BattleRecord
}

func newBattleRecords() *BattleRecords {
	return &BattleRecords{byRound: make(map[int][]BattleRecord)}
}

// ForRound returns the records of round in the order they were added.
func (br *BattleRecords) ForRound(round int) []BattleRecord {
	return append([]BattleRecord(nil), br.byRound[round]...)
}

// Len is the total number of records.
func (br *BattleRecords) Len() int {
	n := 0
	for _, recs := range br.byRound {
		n += len(recs)
	}
	return n
}

func (br *BattleRecords) add(rec BattleRecord) error {
	for _, r := range br.byRound[rec.Round] {
		if r.ID == rec.ID {
			return fmt.Errorf("battle record %s: %w", rec.ID, ErrDuplicateName)
		}
	}
	br.byRound[rec.Round] = append(br.byRound[rec.Round], rec)
	return nil
}

func (br *BattleRecords) remove(rec BattleRecord) error {
	recs := br.byRound[rec.Round]
	for i, r := range recs {
		if r.ID == rec.ID {
			br.byRound[rec.Round] = append(recs[:i:i], recs[i+1:]...)
			if len(br.byRound[rec.Round]) == 0 {
				delete(br.byRound, rec.Round)
			}
			return nil
		}
	}
	return fmt.Errorf("battle record %s: %w", rec.ID, ErrUnknownName)
}
