package timepulse

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	MaxDailyHours  = 24.0
	MaxWeeklyHours = 168.0
)

// DayNames are indexed Monday first, matching DailyHours.
var DayNames = [7]string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// DailyHours holds the hours of one week, Monday at index 0.
type DailyHours [7]float64

func (d DailyHours) Total() float64 {
	var total float64
	for _, h := range d {
		total += h
	}
	return total
}

func (d DailyHours) Get(wd time.Weekday) float64 {
	return d[WeekdayIndex(wd)]
}

func (d *DailyHours) Set(wd time.Weekday, hours float64) {
	d[WeekdayIndex(wd)] = hours
}

// DaysWorked counts the days with a positive value.
func (d DailyHours) DaysWorked() int {
	n := 0
	for _, h := range d {
		if h > 0 {
			n++
		}
	}
	return n
}

func (d DailyHours) MarshalJSON() ([]byte, error) {
	m := make(map[string]float64, len(DayNames))
	for i, name := range DayNames {
		m[name] = d[i]
	}
	return json.Marshal(m)
}

func (d *DailyHours) UnmarshalJSON(data []byte) error {
	var m map[string]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	var out DailyHours
	for key, value := range m {
		idx, ok := DayIndex(key)
		if !ok {
			return fmt.Errorf("unknown day %q", key)
		}
		out[idx] = value
	}
	*d = out
	return nil
}

// Event is the payload published for every notification, both on the
// realtime channel and to tenant webhooks.
type Event struct {
	Kind           string         `json:"kind"`
	TenantID       string         `json:"tenantId"`
	UserID         string         `json:"userId"`
	NotificationID string         `json:"notificationId"`
	Title          string         `json:"title"`
	Body           string         `json:"body"`
	Link           string         `json:"link,omitempty"`
	Payload        map[string]any `json:"payload,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
}

const Version = "0.1.0"

type Endpoint struct {
	Template string    `json:"template"`
	Method   string    `json:"method"`
	Query    *[]string `json:"query,omitempty"`
}

type ServiceInfo struct {
	Name      string              `json:"name"`
	Version   string              `json:"version"`
	Endpoints map[string]Endpoint `json:"endpoints"`
}
