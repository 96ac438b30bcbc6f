package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

const testChallengeURL = "https://challenge.test/wp-json/challenge/v1/1"

// challengeDocument returns a valid upstream document as generic JSON values
func challengeDocument() map[string]interface{} {
	return map[string]interface{}{
		"title": "To the person who stole my copy of Microsoft Office. I will find you. You have my Word.",
		"data": map[string]interface{}{
			"headers": []interface{}{"ID", "First Name", "Last Name", "Email", "Date"},
			"rows": map[string]interface{}{
				"1": map[string]interface{}{
					"id":    71,
					"fname": "Liam",
					"lname": "Neeson",
					"email": "skills@test.com",
					"date":  13626000,
				},
				"2": map[string]interface{}{
					"id":    90,
					"fname": "Shean",
					"lname": "Connery",
					"email": "bond@test.com",
					"date":  13626900,
				},
				"3": map[string]interface{}{
					"id":    56,
					"fname": "Jason",
					"lname": "Statham",
					"email": "FrankMartin@test.com",
					"date":  13626970,
				},
			},
		},
	}
}

func documentRow(doc map[string]interface{}, key string) map[string]interface{} {
	data := doc["data"].(map[string]interface{})
	rows := data["rows"].(map[string]interface{})
	return rows[key].(map[string]interface{})
}

func mustJSON(t *testing.T, v interface{}) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
