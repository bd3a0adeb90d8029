// Package seed provides a deterministic sample dataset for demos and
// local development.
package seed

import (
	"context"
	"time"

	"github.com/okian/peloton/internal/ingest"
)

// SampleSource implements ingest.Source with a fixed spring-classics
// fixture. The day filter is ignored so one pass seeds everything.
type SampleSource struct{}

// NewSampleSource returns the built-in sample source.
func NewSampleSource() *SampleSource {
	return &SampleSource{}
}

// Races returns the full sample fixture regardless of the requested day.
func (s *SampleSource) Races(_ context.Context, _ time.Time) ([]ingest.RaceData, error) {
	return sampleRaces(), nil
}

func sampleRaces() []ingest.RaceData {
	return []ingest.RaceData{
		{
			Name:         "Milano-Sanremo",
			Date:         time.Date(2026, 3, 21, 0, 0, 0, 0, time.UTC),
			Category:     "Monument",
			Country:      "IT",
			TemplateName: "Milano-Sanremo",
			Results: []ingest.ResultData{
				{RiderName: "Mathieu van der Poel", Team: "Alpecin-Deceuninck", Country: "NL", Position: 1, TimeSeconds: 21510},
				{RiderName: "Tadej Pogacar", Team: "UAE Team Emirates", Country: "SI", Position: 2, TimeSeconds: 21510, TimeBehindSeconds: 0},
				{RiderName: "Filippo Ganna", Team: "INEOS Grenadiers", Country: "IT", Position: 3, TimeSeconds: 21512, TimeBehindSeconds: 2},
				{RiderName: "Wout van Aert", Team: "Visma-Lease a Bike", Country: "BE", Position: 4, TimeSeconds: 21520, TimeBehindSeconds: 10},
				{RiderName: "Jasper Philipsen", Team: "Alpecin-Deceuninck", Country: "BE", Position: 5, TimeSeconds: 21524, TimeBehindSeconds: 14},
			},
		},
		{
			Name:         "Paris-Roubaix",
			Date:         time.Date(2026, 4, 12, 0, 0, 0, 0, time.UTC),
			Category:     "Monument",
			Country:      "FR",
			TemplateName: "Paris-Roubaix",
			Results: []ingest.ResultData{
				{RiderName: "Mathieu van der Poel", Team: "Alpecin-Deceuninck", Country: "NL", Position: 1, TimeSeconds: 20100},
				{RiderName: "Wout van Aert", Team: "Visma-Lease a Bike", Country: "BE", Position: 2, TimeSeconds: 20160, TimeBehindSeconds: 60},
				{RiderName: "Mads Pedersen", Team: "Lidl-Trek", Country: "DK", Position: 3, TimeSeconds: 20190, TimeBehindSeconds: 90},
				{RiderName: "Jasper Philipsen", Team: "Alpecin-Deceuninck", Country: "BE", Position: 4, TimeSeconds: 20250, TimeBehindSeconds: 150},
				{RiderName: "Filippo Ganna", Team: "INEOS Grenadiers", Country: "IT", Position: 5, TimeSeconds: 20280, TimeBehindSeconds: 180, DidNotFinish: false},
			},
		},
		{
			Name:         "Giro Stage 16",
			Date:         time.Date(2026, 5, 26, 0, 0, 0, 0, time.UTC),
			Category:     "GT",
			Country:      "IT",
			TemplateName: "High Mountain Stage",
			Results: []ingest.ResultData{
				{RiderName: "Tadej Pogacar", Team: "UAE Team Emirates", Country: "SI", Position: 1, TimeSeconds: 17820},
				{RiderName: "Jonas Vingegaard", Team: "Visma-Lease a Bike", Country: "DK", Position: 2, TimeSeconds: 17850, TimeBehindSeconds: 30},
				{RiderName: "Remco Evenepoel", Team: "Soudal Quick-Step", Country: "BE", Position: 3, TimeSeconds: 17910, TimeBehindSeconds: 90},
				{RiderName: "Primoz Roglic", Team: "Red Bull-BORA", Country: "SI", Position: 4, TimeSeconds: 17940, TimeBehindSeconds: 120},
				{RiderName: "Mads Pedersen", Team: "Lidl-Trek", Country: "DK", Position: 5, TimeSeconds: 19300, TimeBehindSeconds: 1480, DidNotFinish: true},
			},
		},
		{
			Name:         "Giro Stage 17 ITT",
			Date:         time.Date(2026, 5, 27, 0, 0, 0, 0, time.UTC),
			Category:     "GT",
			Country:      "IT",
			TemplateName: "Individual Time Trial",
			Results: []ingest.ResultData{
				{RiderName: "Filippo Ganna", Team: "INEOS Grenadiers", Country: "IT", Position: 1, TimeSeconds: 2410},
				{RiderName: "Remco Evenepoel", Team: "Soudal Quick-Step", Country: "BE", Position: 2, TimeSeconds: 2418, TimeBehindSeconds: 8},
				{RiderName: "Tadej Pogacar", Team: "UAE Team Emirates", Country: "SI", Position: 3, TimeSeconds: 2440, TimeBehindSeconds: 30},
				{RiderName: "Jonas Vingegaard", Team: "Visma-Lease a Bike", Country: "DK", Position: 4, TimeSeconds: 2455, TimeBehindSeconds: 45},
				{RiderName: "Primoz Roglic", Team: "Red Bull-BORA", Country: "SI", Position: 5, TimeSeconds: 2462, TimeBehindSeconds: 52},
			},
		},
	}
}
