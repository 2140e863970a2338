package link

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Event is one dated entry on a voyage timeline.
type Event struct {
	Date   time.Time `json:"date"`
	Type   string    `json:"type"`
	Detail string    `json:"detail"`
	Source string    `json:"source"`
}

const (
	EventDeparture = "departure"
	EventArrival   = "arrival"
	EventLoss      = "loss"
	EventPosition  = "position"
)

// Timeline assembles the full view and merges voyage, wreck and track
// data into a single chronological event list. Undated material is left
// out; the view is returned alongside so callers render both at once.
func (o *Orchestrator) Timeline(ctx context.Context, voyageID string) (*LinkedView, []Event, error) {
	view, err := o.FullView(ctx, voyageID)
	if err != nil {
		return nil, nil, err
	}

	var events []Event
	voyage := view.Voyage
	if !voyage.When.From.IsZero() {
		events = append(events, Event{
			Date:   voyage.When.From,
			Type:   EventDeparture,
			Detail: withPlace("departed", voyage.StringAttr("departure_port")),
			Source: voyage.Ref(),
		})
	}
	if !voyage.When.To.IsZero() && !voyage.When.To.Equal(voyage.When.From) {
		events = append(events, Event{
			Date:   voyage.When.To,
			Type:   EventArrival,
			Detail: withPlace("arrived", voyage.StringAttr("destination_port")),
			Source: voyage.Ref(),
		})
	}

	if wreck, ok := view.Link(TypeWreck); ok && !wreck.Record.When.From.IsZero() {
		events = append(events, Event{
			Date:   wreck.Record.When.From,
			Type:   EventLoss,
			Detail: withPlace("lost", wreck.Record.StringAttr("place")),
			Source: wreck.Ref,
		})
	}

	if track, ok := view.Link(TypeTrack); ok {
		points, err := o.stores.TrackPoints(ctx, track.Record.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("track points for %s: %w", track.Ref, err)
		}
		for _, p := range points {
			if p.Date.IsZero() {
				continue
			}
			events = append(events, Event{
				Date:   p.Date,
				Type:   EventPosition,
				Detail: formatPosition(p.Lat, p.Lon),
				Source: track.Ref,
			})
		}
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].Date.Before(events[j].Date) })
	return view, events, nil
}

func withPlace(verb, place string) string {
	if place == "" {
		return verb
	}
	return verb + " " + place
}

func formatPosition(lat, lon float64) string {
	ns, ew := "N", "E"
	if lat < 0 {
		ns, lat = "S", -lat
	}
	if lon < 0 {
		ew, lon = "W", -lon
	}
	return fmt.Sprintf("%.2f%s %.2f%s", lat, ns, lon, ew)
}
