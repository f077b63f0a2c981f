package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/fretlogapp/fretlog-web/internal/models"
	"github.com/fretlogapp/fretlog-web/internal/testutil"
)

func TestPracticeSessionCRUD_HTTP_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping HTTP integration test in short mode")
	}

	env := testutil.SetupTestEnvironment(t)

	t.Run("logs a session against a song", func(t *testing.T) {
		env.CleanDB(t)

		user := testutil.CreateTestUser(t, env, "player@example.com", "Player")
		sessionToken := testutil.CreateTestWebSessionWithToken(t, env, user.ID)
		song := testutil.CreateTestSong(t, env, user.ID, "Cliffs of Dover", "Eric Johnson")

		ts := setupTestServer(t, env)
		client := testutil.NewTestClient(t, ts).WithSession(sessionToken)

		tempo := 120
		mood := models.MoodGood
		notes := "intro clean at last"
		resp, err := client.Post("/api/v1/sessions", models.SavePracticeSessionRequest{
			SongID:          &song.ID,
			PracticedAt:     mustParseTime(t, "2025-06-10T18:30:00Z"),
			DurationMinutes: 45,
			TempoBPM:        &tempo,
			Mood:            &mood,
			Notes:           &notes,
		})
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		testutil.RequireStatus(t, resp, http.StatusCreated)

		var logged models.PracticeSession
		testutil.ParseJSON(t, resp, &logged)

		if logged.ID == 0 {
			t.Error("expected non-zero session ID")
		}
		if logged.SongID == nil || *logged.SongID != song.ID {
			t.Errorf("expected song_id %d, got %v", song.ID, logged.SongID)
		}
		if logged.DurationMinutes != 45 {
			t.Errorf("expected duration 45, got %d", logged.DurationMinutes)
		}
		if logged.TempoBPM == nil || *logged.TempoBPM != 120 {
			t.Errorf("expected tempo 120, got %v", logged.TempoBPM)
		}
		if logged.Mood == nil || *logged.Mood != models.MoodGood {
			t.Errorf("expected mood good, got %v", logged.Mood)
		}
	})

	t.Run("logs a free session with only a duration", func(t *testing.T) {
		env.CleanDB(t)

		user := testutil.CreateTestUser(t, env, "player@example.com", "Player")
		sessionToken := testutil.CreateTestWebSessionWithToken(t, env, user.ID)

		ts := setupTestServer(t, env)
		client := testutil.NewTestClient(t, ts).WithSession(sessionToken)

		resp, err := client.Post("/api/v1/sessions", models.SavePracticeSessionRequest{
			PracticedAt:     mustParseTime(t, "2025-06-10T09:00:00Z"),
			DurationMinutes: 15,
		})
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		testutil.RequireStatus(t, resp, http.StatusCreated)

		var logged models.PracticeSession
		testutil.ParseJSON(t, resp, &logged)
		if logged.SongID != nil {
			t.Errorf("expected nil song_id for free practice, got %d", *logged.SongID)
		}
	})

	t.Run("rejects invalid sessions", func(t *testing.T) {
		env.CleanDB(t)

		user := testutil.CreateTestUser(t, env, "player@example.com", "Player")
		sessionToken := testutil.CreateTestWebSessionWithToken(t, env, user.ID)

		ts := setupTestServer(t, env)
		client := testutil.NewTestClient(t, ts).WithSession(sessionToken)

		badTempo := 500
		badMood := models.Mood("ecstatic")
		cases := []struct {
			name string
			req  models.SavePracticeSessionRequest
		}{
			{"zero duration", models.SavePracticeSessionRequest{
				PracticedAt: mustParseTime(t, "2025-06-10T09:00:00Z"),
			}},
			{"far future timestamp", models.SavePracticeSessionRequest{
				PracticedAt:     time.Now().Add(72 * time.Hour),
				DurationMinutes: 30,
			}},
			{"tempo above limit", models.SavePracticeSessionRequest{
				PracticedAt:     mustParseTime(t, "2025-06-10T09:00:00Z"),
				DurationMinutes: 30,
				TempoBPM:        &badTempo,
			}},
			{"unknown mood", models.SavePracticeSessionRequest{
				PracticedAt:     mustParseTime(t, "2025-06-10T09:00:00Z"),
				DurationMinutes: 30,
				Mood:            &badMood,
			}},
		}

		for _, tc := range cases {
			resp, err := client.Post("/api/v1/sessions", tc.req)
			if err != nil {
				t.Fatalf("%s: request failed: %v", tc.name, err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("%s: expected 400, got %d", tc.name, resp.StatusCode)
			}
		}
	})

	t.Run("rejects a song reference owned by someone else", func(t *testing.T) {
		env.CleanDB(t)

		owner := testutil.CreateTestUser(t, env, "owner@example.com", "Owner")
		other := testutil.CreateTestUser(t, env, "other@example.com", "Other")
		song := testutil.CreateTestSong(t, env, owner.ID, "Private", "")

		sessionToken := testutil.CreateTestWebSessionWithToken(t, env, other.ID)

		ts := setupTestServer(t, env)
		client := testutil.NewTestClient(t, ts).WithSession(sessionToken)

		resp, err := client.Post("/api/v1/sessions", models.SavePracticeSessionRequest{
			SongID:          &song.ID,
			PracticedAt:     mustParseTime(t, "2025-06-10T09:00:00Z"),
			DurationMinutes: 30,
		})
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400 for foreign song_id, got %d", resp.StatusCode)
		}
	})

	t.Run("filters the practice log", func(t *testing.T) {
		env.CleanDB(t)

		user := testutil.CreateTestUser(t, env, "player@example.com", "Player")
		sessionToken := testutil.CreateTestWebSessionWithToken(t, env, user.ID)
		song := testutil.CreateTestSong(t, env, user.ID, "Etude", "")

		mood := models.MoodGreat
		testutil.CreateTestPracticeSession(t, env, user.ID, &song.ID, mustParseTime(t, "2025-06-01T10:00:00Z"), 30, nil, &mood)
		testutil.CreateTestPracticeSession(t, env, user.ID, nil, mustParseTime(t, "2025-06-05T10:00:00Z"), 20, nil, nil)
		testutil.CreateTestPracticeSession(t, env, user.ID, &song.ID, mustParseTime(t, "2025-06-09T10:00:00Z"), 25, nil, nil)

		ts := setupTestServer(t, env)
		client := testutil.NewTestClient(t, ts).WithSession(sessionToken)

		// By song
		resp, err := client.Get("/api/v1/sessions?song_id=" + itoa(song.ID))
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		var bySong []models.PracticeSession
		testutil.ParseJSON(t, resp, &bySong)
		if len(bySong) != 2 {
			t.Errorf("expected 2 sessions for song filter, got %d", len(bySong))
		}

		// By date window (inclusive end)
		resp, err = client.Get("/api/v1/sessions?start_date=2025-06-05&end_date=2025-06-09")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		var byDate []models.PracticeSession
		testutil.ParseJSON(t, resp, &byDate)
		if len(byDate) != 2 {
			t.Errorf("expected 2 sessions in date window, got %d", len(byDate))
		}

		// By mood
		resp, err = client.Get("/api/v1/sessions?mood=great")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		var byMood []models.PracticeSession
		testutil.ParseJSON(t, resp, &byMood)
		if len(byMood) != 1 {
			t.Errorf("expected 1 session for mood filter, got %d", len(byMood))
		}

		// Chronological order
		resp, err = client.Get("/api/v1/sessions")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		var all []models.PracticeSession
		testutil.ParseJSON(t, resp, &all)
		if len(all) != 3 {
			t.Fatalf("expected 3 sessions, got %d", len(all))
		}
		for i := 1; i < len(all); i++ {
			if all[i].PracticedAt.Before(all[i-1].PracticedAt) {
				t.Errorf("expected chronological order, got %v before %v",
					all[i-1].PracticedAt, all[i].PracticedAt)
			}
		}
	})

	t.Run("rejects malformed filters", func(t *testing.T) {
		env.CleanDB(t)

		user := testutil.CreateTestUser(t, env, "player@example.com", "Player")
		sessionToken := testutil.CreateTestWebSessionWithToken(t, env, user.ID)

		ts := setupTestServer(t, env)
		client := testutil.NewTestClient(t, ts).WithSession(sessionToken)

		for _, query := range []string{
			"?song_id=abc",
			"?start_date=June-1",
			"?mood=happy",
			"?start_date=2025-06-10&end_date=2025-06-01",
		} {
			resp, err := client.Get("/api/v1/sessions" + query)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("expected 400 for %s, got %d", query, resp.StatusCode)
			}
		}
	})

	t.Run("updates and deletes a session", func(t *testing.T) {
		env.CleanDB(t)

		user := testutil.CreateTestUser(t, env, "player@example.com", "Player")
		sessionToken := testutil.CreateTestWebSessionWithToken(t, env, user.ID)
		sessionID := testutil.CreateTestPracticeSession(t, env, user.ID, nil, mustParseTime(t, "2025-06-01T10:00:00Z"), 30, nil, nil)

		ts := setupTestServer(t, env)
		client := testutil.NewTestClient(t, ts).WithSession(sessionToken)

		resp, err := client.Put("/api/v1/sessions/"+itoa(sessionID), models.SavePracticeSessionRequest{
			PracticedAt:     mustParseTime(t, "2025-06-01T11:00:00Z"),
			DurationMinutes: 50,
		})
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		testutil.RequireStatus(t, resp, http.StatusOK)

		var updated models.PracticeSession
		testutil.ParseJSON(t, resp, &updated)
		if updated.DurationMinutes != 50 {
			t.Errorf("expected duration 50 after update, got %d", updated.DurationMinutes)
		}

		resp, err = client.Delete("/api/v1/sessions/" + itoa(sessionID))
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		testutil.RequireStatus(t, resp, http.StatusNoContent)
		resp.Body.Close()

		resp, err = client.Get("/api/v1/sessions/" + itoa(sessionID))
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404 after delete, got %d", resp.StatusCode)
		}
	})
}
