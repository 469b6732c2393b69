package mongocollection

import (
	"testing"
	"time"

	"github.com/cert-lv/abusefinder/pdk"
)

/*
 * Test output's settings validation
 */
func TestParse(t *testing.T) {

	table := []struct {
		access map[string]string
		valid  bool
	}{
		{map[string]string{"url": "mongodb://localhost:27017", "database": "abuse", "collection": "events"}, true},
		{map[string]string{"url": "mongodb://localhost:27017", "database": "abuse", "collection": "events", "user": "u", "password": "p"}, true},
		{map[string]string{"database": "abuse", "collection": "events"}, false},
		{map[string]string{"url": "mongodb://localhost:27017", "collection": "events"}, false},
		{map[string]string{"url": "mongodb://localhost:27017", "database": "abuse"}, false},
	}

	for _, row := range table {
		opts, err := parse(&pdk.Output{Timeout: time.Second, Access: row.access})

		if !row.valid {
			if err == nil {
				t.Errorf("Invalid settings accepted: %v", row.access)
			}
			continue
		}

		if err != nil {
			t.Errorf("Valid settings rejected: %v: %s", row.access, err.Error())
			continue
		}

		if (opts.Auth != nil) != (row.access["user"] != "") {
			t.Errorf("Invalid credentials for %v: %+v", row.access, opts.Auth)
		}
	}
}
