// Package gtfsloader parses a GTFS feed directory into the typed frames the
// assembler needs: stops (id, lat, lon) and per-trip consecutive stop-time
// pairs, filtered to one service day and one departure time window.
//
// Grounded on original_source/cascade-core/src/loaders.rs (prepare_dataframes
// / new_graph / add_edges_to_graph: calendar-based service filtering,
// HH:MM:SS parsing, per-trip stop_sequence ordering, the consecutive-stop
// arrival-time ordering check). CSV parsing itself uses the standard library's
// encoding/csv, matching the teacher's own use of encoding/csv for way-type
// export in its OSM parser -- no library in the retrieved corpus offers
// GTFS-aware or general CSV decoding beyond the standard library, so this
// ambient concern stays on encoding/csv.
package gtfsloader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"transitgraph/domain"
)

// Weekday selects the calendar.txt column consulted for service-day
// filtering.
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

func (w Weekday) valid() bool {
	switch w {
	case Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday:
		return true
	}
	return false
}

// calendarDates exception_type values, per the GTFS reference.
const (
	exceptionAdded   = "1"
	exceptionRemoved = "2"
)

// Window bounds the departure_time range, in seconds since service-day
// midnight, that stop_times rows must fall within to be retained.
type Window struct {
	Departure int64
	Duration  int64
}

func (w Window) contains(depT int64) bool {
	return depT >= w.Departure && depT < w.Departure+w.Duration
}

// Stop is one retained stops.txt row.
type Stop struct {
	StopID string
	Lat    float64
	Lon    float64
}

// Segment is one consecutive (current_stop -> next_stop) pair within a
// single trip's stop_times. Load rejects a trip whose arrival times decrease
// along stop_sequence; it does not compare DepT against ArrT.
type Segment struct {
	FromStopID string
	ToStopID   string
	DepT       int64
	ArrT       int64
	RouteID    string
}

// Result is the parsed, filtered GTFS frame pair the assembler consumes.
type Result struct {
	Stops    []Stop
	Segments []Segment
}

// Load parses the GTFS feed directory at dir, restricted to service day
// weekday and departure window. progress reports row-count completion of
// the largest file (stop_times.txt); pass domain.NoopProgress to silence it.
func Load(dir string, weekday Weekday, window Window, progress domain.Progress, sink domain.Sink) (*Result, error) {
	if !weekday.valid() {
		return nil, domain.WrapErrorf(nil, domain.ErrUnknownWeekday, "weekday %q", weekday)
	}
	if progress == nil {
		progress = domain.NoopProgress
	}
	if sink == nil {
		sink = domain.DiscardSink{}
	}

	stopRows, err := readCSV(filepath.Join(dir, "stops.txt"))
	if err != nil {
		return nil, err
	}
	// routes.txt is required to exist, though route_id itself is read
	// straight off trips.txt.
	if _, err := readCSV(filepath.Join(dir, "routes.txt")); err != nil {
		return nil, err
	}
	tripRows, err := readCSV(filepath.Join(dir, "trips.txt"))
	if err != nil {
		return nil, err
	}
	stopTimeRows, err := readCSV(filepath.Join(dir, "stop_times.txt"))
	if err != nil {
		return nil, err
	}
	calendarRows, err := readCSV(filepath.Join(dir, "calendar.txt"))
	if err != nil {
		return nil, err
	}
	// calendar_dates.txt is optional per spec.
	calendarDateRows, err := readCSV(filepath.Join(dir, "calendar_dates.txt"))
	if err != nil {
		if !errors.Is(err, domain.ErrMissingFile) {
			return nil, err
		}
		calendarDateRows = nil
	}

	serviceIDs, err := activeServiceIDs(calendarRows, calendarDateRows, weekday)
	if err != nil {
		return nil, err
	}

	tripService := make(map[string]string, len(tripRows))
	for i, row := range dataRows(tripRows) {
		tripID, err := column(row, tripRows, i, "trip_id")
		if err != nil {
			return nil, err
		}
		serviceID, err := column(row, tripRows, i, "service_id")
		if err != nil {
			return nil, err
		}
		tripService[tripID] = serviceID
	}

	stops := make([]Stop, 0, len(stopRows))
	for i, row := range dataRows(stopRows) {
		stopID, err := column(row, stopRows, i, "stop_id")
		if err != nil {
			return nil, err
		}
		lat, err := columnFloat(row, stopRows, i, "stop_lat")
		if err != nil {
			return nil, err
		}
		lon, err := columnFloat(row, stopRows, i, "stop_lon")
		if err != nil {
			return nil, err
		}
		stops = append(stops, Stop{StopID: stopID, Lat: lat, Lon: lon})
	}

	byTrip := make(map[string][]stopTimeRow)
	for i, row := range dataRows(stopTimeRows) {
		if i > 0 && i%50000 == 0 {
			progress.Add(50000)
		}
		tripID, err := column(row, stopTimeRows, i, "trip_id")
		if err != nil {
			return nil, err
		}
		serviceID, ok := tripService[tripID]
		if !ok {
			continue
		}
		if _, active := serviceIDs[serviceID]; !active {
			continue
		}

		seqStr, err := column(row, stopTimeRows, i, "stop_sequence")
		if err != nil {
			return nil, err
		}
		seq, err := strconv.Atoi(seqStr)
		if err != nil {
			return nil, domain.WrapErrorf(err, domain.ErrBadSchema, "stop_times.txt row %d: bad stop_sequence %q", i, seqStr)
		}
		stopID, err := column(row, stopTimeRows, i, "stop_id")
		if err != nil {
			return nil, err
		}
		arrStr, err := column(row, stopTimeRows, i, "arrival_time")
		if err != nil {
			return nil, err
		}
		depStr, err := column(row, stopTimeRows, i, "departure_time")
		if err != nil {
			return nil, err
		}
		arrT, err := parseGTFSTime(arrStr)
		if err != nil {
			return nil, domain.WrapErrorf(err, domain.ErrBadTime, "stop_times.txt row %d: arrival_time %q", i, arrStr)
		}
		depT, err := parseGTFSTime(depStr)
		if err != nil {
			return nil, domain.WrapErrorf(err, domain.ErrBadTime, "stop_times.txt row %d: departure_time %q", i, depStr)
		}

		entry := stopTimeRow{tripID: tripID, seq: seq, stopID: stopID, arrT: arrT, depT: depT}
		if duplicateSeq(byTrip[tripID], seq) {
			sink.Warnf("gtfsloader: duplicate stop_times row for trip %q stop_sequence %d, keeping first", tripID, seq)
		} else {
			byTrip[tripID] = append(byTrip[tripID], entry)
		}
	}
	progress.Finish()

	routeOfTrip := make(map[string]string, len(tripRows))
	for i, row := range dataRows(tripRows) {
		tripID, _ := column(row, tripRows, i, "trip_id")
		routeID, err := column(row, tripRows, i, "route_id")
		if err == nil {
			routeOfTrip[tripID] = routeID
		}
	}

	tripIDs := make([]string, 0, len(byTrip))
	for tripID := range byTrip {
		tripIDs = append(tripIDs, tripID)
	}
	sort.Strings(tripIDs)

	var segments []Segment
	for _, tripID := range tripIDs {
		rows := byTrip[tripID]
		sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

		for i := 0; i+1 < len(rows); i++ {
			cur, next := rows[i], rows[i+1]
			if !window.contains(cur.depT) {
				continue
			}
			if cur.arrT > next.arrT {
				return nil, domain.WrapErrorf(nil, domain.ErrBadTime,
					"trip %q: stop_sequence %d arrival_time exceeds stop_sequence %d arrival_time", tripID, cur.seq, next.seq)
			}
			segments = append(segments, Segment{
				FromStopID: cur.stopID,
				ToStopID:   next.stopID,
				DepT:       cur.depT,
				ArrT:       next.arrT,
				RouteID:    routeOfTrip[tripID],
			})
		}
	}

	return &Result{Stops: stops, Segments: segments}, nil
}

// dataRows returns rows excluding the header, or nil if only a header (or
// nothing) is present. The index in a range loop over it counts data rows
// from 0 (one less than the row's position in the original slice), which is
// the dataRowIdx that column/columnFloat's error messages expect.
func dataRows(rows [][]string) [][]string {
	if len(rows) <= 1 {
		return nil
	}
	return rows[1:]
}

func duplicateSeq(rows []stopTimeRow, seq int) bool {
	for _, r := range rows {
		if r.seq == seq {
			return true
		}
	}
	return false
}

type stopTimeRow struct {
	tripID string
	seq    int
	stopID string
	arrT   int64
	depT   int64
}

// activeServiceIDs unions calendar.txt's weekday==1 service ids with
// calendar_dates.txt exception_type=1 additions, minus exception_type=2
// removals. Rows of calendar_dates.txt are applied in file order and
// regardless of their date, since this system operates on a single
// representative service day, not a calendar date.
func activeServiceIDs(calendarRows, calendarDateRows [][]string, weekday Weekday) (map[string]struct{}, error) {
	active := make(map[string]struct{})
	if len(calendarRows) > 0 {
		for i, row := range calendarRows[1:] {
			serviceID, err := column(row, calendarRows, i, "service_id")
			if err != nil {
				return nil, err
			}
			flag, err := column(row, calendarRows, i, string(weekday))
			if err != nil {
				return nil, err
			}
			if flag == "1" {
				active[serviceID] = struct{}{}
			}
		}
	}

	if len(calendarDateRows) == 0 {
		return active, nil
	}
	for i, row := range calendarDateRows[1:] {
		serviceID, err := column(row, calendarDateRows, i, "service_id")
		if err != nil {
			return nil, err
		}
		exceptionType, err := column(row, calendarDateRows, i, "exception_type")
		if err != nil {
			return nil, err
		}
		switch exceptionType {
		case exceptionAdded:
			active[serviceID] = struct{}{}
		case exceptionRemoved:
			delete(active, serviceID)
		}
	}
	return active, nil
}

// parseGTFSTime parses an HH:MM:SS timestamp, where HH may exceed 23 to
// represent service past midnight, into seconds since service-day midnight.
func parseGTFSTime(s string) (int64, error) {
	var h, m, sec int64
	n, err := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec)
	if err != nil || n != 3 || m < 0 || m > 59 || sec < 0 || sec > 59 || h < 0 {
		return 0, fmt.Errorf("expected HH:MM:SS, got %q", s)
	}
	return h*3600 + m*60 + sec, nil
}

// readCSV reads a GTFS file into rows, the header included as rows[0].
func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.WrapErrorf(err, domain.ErrMissingFile, "gtfs file %q", path)
		}
		return nil, domain.WrapErrorf(err, domain.ErrIoError, "open gtfs file %q", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil && err != io.EOF {
		return nil, domain.WrapErrorf(err, domain.ErrBadSchema, "parse gtfs file %q", path)
	}
	return rows, nil
}

// column looks up a named column's value for data row index dataRowIdx (i
// counts data rows, not counting the header at rows[0]), used to point a
// schema error back at the offending row.
func column(row []string, rows [][]string, dataRowIdx int, name string) (string, error) {
	if len(rows) == 0 {
		return "", domain.WrapErrorf(nil, domain.ErrBadSchema, "empty file, missing column %q", name)
	}
	header := rows[0]
	for i, h := range header {
		if h == name {
			if i >= len(row) {
				return "", nil
			}
			return row[i], nil
		}
	}
	return "", domain.WrapErrorf(nil, domain.ErrBadSchema, "data row %d: missing column %q", dataRowIdx, name)
}

func columnFloat(row []string, rows [][]string, dataRowIdx int, name string) (float64, error) {
	s, err := column(row, rows, dataRowIdx, name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, domain.WrapErrorf(err, domain.ErrBadSchema, "data row %d: column %q: bad float %q", dataRowIdx, name, s)
	}
	return v, nil
}
