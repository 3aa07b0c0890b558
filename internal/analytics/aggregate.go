package analytics

import (
	"sort"
	"strconv"
	"time"

	"github.com/PratikDhanave/analytics-portal/internal/event"
)

// TopEventUnavailable is reported when no record carries an event-name field.
const TopEventUnavailable = "N/A"

// userIDField identifies a user within a record.
const userIDField = "id"

// clientTimeField is the client-side epoch-milliseconds timestamp.
const clientTimeField = "time"

// storeIDField is reserved for the store's internal identifier and is never
// shown in the raw-data table.
const storeIDField = "_id"

// BucketWidth is the fixed interval for time-bucketed volume.
const BucketWidth = time.Minute

// Summary holds the dashboard's headline metrics.
type Summary struct {
	TotalEvents int
	UniqueUsers int
	TopEvent    string
}

// EventCount is one event name with its occurrence count.
type EventCount struct {
	Name  string
	Count int
}

// TimePoint is the event volume for one (bucket, event name) pair.
type TimePoint struct {
	Bucket time.Time
	Event  string
	Count  int
}

// Table is the raw-data view: derived columns first, then client fields in
// submission order.
type Table struct {
	Columns []string
	Rows    [][]string
}

// valueKey canonicalizes a value for distinct-counting so that equal values
// of the same JSON type collapse.
func valueKey(v event.Value) string {
	return strconv.Itoa(int(v.Kind)) + ":" + v.Display()
}

// Summarize computes the headline metrics for a record set. Missing fields
// degrade to defined fallbacks rather than failing: no identifying field
// yields zero unique users, no event-name field yields "N/A".
func Summarize(records []event.Record) Summary {
	s := Summary{
		TotalEvents: len(records),
		TopEvent:    TopEventUnavailable,
	}

	users := map[string]struct{}{}
	for i := range records {
		if v, ok := records[i].Get(userIDField); ok {
			users[valueKey(v)] = struct{}{}
		}
	}
	s.UniqueUsers = len(users)

	if top := Distribution(records); len(top) > 0 {
		s.TopEvent = top[0].Name
	}
	return s
}

// Distribution groups records by their resolved event name and returns the
// counts ordered by count descending, first-encountered name on ties.
// Records without the resolved field are excluded, not bucketed under a
// default.
func Distribution(records []event.Record) []EventCount {
	field, ok := event.ResolveEventField(records)
	if !ok {
		return nil
	}

	counts := map[string]int{}
	var order []string
	for i := range records {
		v, ok := records[i].Get(field)
		if !ok {
			continue
		}
		name := v.Display()
		if _, seen := counts[name]; !seen {
			order = append(order, name)
		}
		counts[name]++
	}

	firstSeen := map[string]int{}
	for i, name := range order {
		firstSeen[name] = i
	}

	out := make([]EventCount, 0, len(order))
	for _, name := range order {
		out = append(out, EventCount{Name: name, Count: counts[name]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return firstSeen[out[i].Name] < firstSeen[out[j].Name]
	})
	return out
}

// bucketOf floors an epoch-milliseconds timestamp to its bucket start.
func bucketOf(ms int64) time.Time {
	return time.UnixMilli(ms).UTC().Truncate(BucketWidth)
}

// TimeSeries buckets records into fixed one-minute intervals grouped by
// resolved event name, ordered by bucket then name. Records missing or with
// an unusable "time" field are excluded. ok=false means the series is
// unavailable (no record carried a usable timestamp, or no event-name field
// exists) — distinct from an empty series, so the caller renders a warning
// instead of an empty chart.
func TimeSeries(records []event.Record) (points []TimePoint, ok bool) {
	field, hasField := event.ResolveEventField(records)
	if !hasField {
		return nil, false
	}

	type key struct {
		bucket time.Time
		name   string
	}
	counts := map[key]int{}
	usable := false
	for i := range records {
		tv, present := records[i].Get(clientTimeField)
		if !present {
			continue
		}
		ms, valid := tv.EpochMillis()
		if !valid {
			continue
		}
		usable = true
		ev, present := records[i].Get(field)
		if !present {
			continue
		}
		counts[key{bucket: bucketOf(ms), name: ev.Display()}]++
	}
	if !usable {
		return nil, false
	}

	points = make([]TimePoint, 0, len(counts))
	for k, n := range counts {
		points = append(points, TimePoint{Bucket: k.bucket, Event: k.name, Count: n})
	}
	sort.Slice(points, func(i, j int) bool {
		if !points[i].Bucket.Equal(points[j].Bucket) {
			return points[i].Bucket.Before(points[j].Bucket)
		}
		return points[i].Event < points[j].Event
	})
	return points, true
}

// TableView projects records into the raw-data table: the derived datetime
// column and the resolved event-name column come first, remaining fields
// follow in submission order. The store's internal identifier is stripped.
func TableView(records []event.Record) Table {
	field, hasField := event.ResolveEventField(records)

	hasTime := false
	for i := range records {
		if tv, ok := records[i].Get(clientTimeField); ok {
			if _, valid := tv.EpochMillis(); valid {
				hasTime = true
				break
			}
		}
	}

	var columns []string
	seen := map[string]bool{storeIDField: true}
	if hasTime {
		columns = append(columns, "datetime")
		seen["datetime"] = true
	}
	if hasField {
		columns = append(columns, field)
		seen[field] = true
	}
	for i := range records {
		for _, f := range records[i].Fields() {
			if seen[f.Name] {
				continue
			}
			seen[f.Name] = true
			columns = append(columns, f.Name)
		}
	}

	rows := make([][]string, 0, len(records))
	for i := range records {
		row := make([]string, len(columns))
		for c, name := range columns {
			if name == "datetime" && hasTime {
				if tv, ok := records[i].Get(clientTimeField); ok {
					if ms, valid := tv.EpochMillis(); valid {
						row[c] = time.UnixMilli(ms).UTC().Format("2006-01-02 15:04:05")
					}
				}
				continue
			}
			if v, ok := records[i].Get(name); ok {
				row[c] = v.Display()
			}
		}
		rows = append(rows, row)
	}
	return Table{Columns: columns, Rows: rows}
}
