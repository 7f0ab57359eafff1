package lodging

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// CityResolver maps a free-text city name to an upstream city id.
type CityResolver interface {
	Resolve(name string) (int, error)
}

// CityMap is an in-memory city name -> id table.
type CityMap struct {
	ids map[string]int
}

var _ CityResolver = (*CityMap)(nil)

func NewCityMap(entries map[string]int) *CityMap {
	m := &CityMap{ids: make(map[string]int, len(entries))}
	for name, id := range entries {
		if key := normalizeCity(name); key != "" && id > 0 {
			m.ids[key] = id
		}
	}
	return m
}

// LoadCityMap reads a CSV file with a header naming the id column
// (city_id or cityId) and the name column (city or city_name).
func LoadCityMap(path string) (*CityMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open city mapping: %w", err)
	}
	defer f.Close()
	return ReadCityMap(f)
}

func ReadCityMap(r io.Reader) (*CityMap, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read city mapping header: %w", err)
	}
	idCol, nameCol := -1, -1
	for i, col := range header {
		switch strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")) {
		case "city_id", "cityId":
			if idCol < 0 {
				idCol = i
			}
		case "city", "city_name":
			if nameCol < 0 {
				nameCol = i
			}
		}
	}
	if idCol < 0 || nameCol < 0 {
		return nil, errors.New("city mapping needs city_id and city columns")
	}

	m := &CityMap{ids: map[string]int{}}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read city mapping: %w", err)
		}
		if idCol >= len(row) || nameCol >= len(row) {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(row[idCol]))
		if err != nil || id <= 0 {
			continue
		}
		if key := normalizeCity(row[nameCol]); key != "" {
			m.ids[key] = id
		}
	}
	return m, nil
}

func (m *CityMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.ids)
}

// Resolve matches case-insensitively. "Paris, France" falls back to "Paris".
func (m *CityMap) Resolve(name string) (int, error) {
	if m != nil {
		key := normalizeCity(name)
		if id, ok := m.ids[key]; ok {
			return id, nil
		}
		if head, _, found := strings.Cut(key, ","); found {
			if id, ok := m.ids[strings.TrimSpace(head)]; ok {
				return id, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrCityNotFound, name)
}

func normalizeCity(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
