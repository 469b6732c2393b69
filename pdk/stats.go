package pdk

import (
	"fmt"
	"sync"

	"github.com/umpc/go-sortedmap"
	"github.com/umpc/go-sortedmap/desc"
)

/*
 * Structure to contain statistics data
 * of the events emitted by some agent,
 * like the most frequent abuse contacts
 */
type Stats struct {
	Fields map[string]*sortedmap.SortedMap
	mx     sync.Mutex
}

/*
 * Create statistics storage for the given payload fields.
 * Dot separated names point to the internal maps fields
 */
func NewStats(fields ...string) *Stats {
	s := &Stats{
		Fields: make(map[string]*sortedmap.SortedMap),
	}

	for _, field := range fields {
		s.Fields[field] = sortedmap.New(10, desc.Int)
	}

	return s
}

/*
 * Update statistics with the values of all the known fields
 * of the single event's payload
 */
func (s *Stats) Collect(payload map[string]interface{}) {
	keys := make([]string, 0, len(s.Fields))
	for key := range s.Fields {
		keys = append(keys, key)
	}

	flat := make(map[string]interface{})
	CopyPresentValues(payload, flat, keys)

	for _, key := range keys {
		s.Update(flat, key)
	}
}

/*
 * Update statistics of the received entry.
 *
 * Receives:
 *     entry - single entry
 *     key   - statistics chart field to update,
 *             one entry increases the value by 1,
 *             every item of a list value is counted separately
 */
func (s *Stats) Update(entry map[string]interface{}, key string) {
	// Skip if value is missing
	value := entry[key]
	if value == nil || fmt.Sprint(value) == "" {
		return
	}

	if list, ok := value.([]interface{}); ok {
		for _, item := range list {
			s.Update(map[string]interface{}{key: item}, key)
		}
		return
	}

	s.mx.Lock()
	defer s.mx.Unlock()

	field, ok := s.Fields[key]
	if !ok {
		return
	}

	// Values of any type are counted by their textual representation
	name := fmt.Sprint(value)

	if val, ok := field.Get(name); ok {
		field.Replace(name, val.(int)+1)
	} else {
		field.Insert(name, 1)
	}
}

/*
 * Convert sorted-map object to the native map,
 * converted to the JSON later.
 *
 * Receives an agent name
 */
func (s *Stats) ToJSON(agent string) (map[string]interface{}, error) {
	s.mx.Lock()
	defer s.mx.Unlock()

	// Map to store Top 10 entries
	json := make(map[string]interface{})

	// Identifier of the agent data belongs to
	json["agent"] = agent

	for k, v := range s.Fields {
		i := 1

		iterCh, err := v.IterCh()
		if err != nil && len(v.Keys()) != 0 {
			return nil, err

		} else if len(v.Keys()) != 0 {
			group := make(map[string]int)

			for rec := range iterCh.Records() {
				group[fmt.Sprint(rec.Key)] = rec.Val.(int)

				// We want Top 10 here and started from i == 1
				if i > 9 {
					break
				}

				i++
			}

			iterCh.Close()
			json[k] = group
		}
	}

	return json, nil
}
