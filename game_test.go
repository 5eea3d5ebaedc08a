package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
)

func newTestGame(t *testing.T) (*Game, *httprouter.Router) {
	t.Helper()

	cfg := &Config{}
	game := newGame()

	mux := httprouter.New()
	registerGameAPI(cfg, game, mux)

	return game, mux
}

func TestAddPlayer(t *testing.T) {
	game, _ := newTestGame(t)

	player, err := game.addPlayer("Team Rudolph")
	if err != nil {
		t.Fatalf("addPlayer returned error: %v", err)
	}
	if player.ID == "" {
		t.Error("Expected a generated player ID")
	}
	if player.Score != 0 {
		t.Errorf("New player should start at 0 points, got %d", player.Score)
	}

	if _, err := game.addPlayer("Team Rudolph"); err != errConflict {
		t.Errorf("Duplicate name should return errConflict, got %v", err)
	}
	if _, err := game.addPlayer(""); err != errBadInput {
		t.Errorf("Empty name should return errBadInput, got %v", err)
	}
}

func TestRemovePlayer(t *testing.T) {
	game, _ := newTestGame(t)

	player, _ := game.addPlayer("Team Grinch")

	if err := game.removePlayer(player.ID); err != nil {
		t.Fatalf("removePlayer returned error: %v", err)
	}
	if got := game.listPlayers(); len(got) != 0 {
		t.Errorf("Expected no players after removal, got %d", len(got))
	}
	if err := game.removePlayer(player.ID); err != errNotFound {
		t.Errorf("Removing a missing player should return errNotFound, got %v", err)
	}
}

func TestAdjustScore(t *testing.T) {
	game, _ := newTestGame(t)

	player, _ := game.addPlayer("Team Elf")

	updated, err := game.adjustScore(player.ID, 400)
	if err != nil {
		t.Fatalf("adjustScore returned error: %v", err)
	}
	if updated.Score != 400 {
		t.Errorf("Expected score 400, got %d", updated.Score)
	}

	// The board docks points for wrong answers; scores may go negative.
	updated, _ = game.adjustScore(player.ID, -600)
	if updated.Score != -200 {
		t.Errorf("Expected score -200, got %d", updated.Score)
	}

	if _, err := game.adjustScore("missing", 100); err != errNotFound {
		t.Errorf("Adjusting a missing player should return errNotFound, got %v", err)
	}
}

func TestQuestionBankCRUD(t *testing.T) {
	game, _ := newTestGame(t)

	added, err := game.addQuestion(Question{
		Value:    200,
		Question: "What is Go?",
		Answer:   "A programming language",
	})
	if err != nil {
		t.Fatalf("addQuestion returned error: %v", err)
	}
	if added.ID == "" {
		t.Error("Expected a generated question ID")
	}

	if _, err := game.addQuestion(Question{Value: 200}); err != errBadInput {
		t.Errorf("Question without text should return errBadInput, got %v", err)
	}
	if _, err := game.addQuestion(Question{Question: "No value?"}); err != errBadInput {
		t.Errorf("Question without a positive value should return errBadInput, got %v", err)
	}

	updated, err := game.updateQuestion(added.ID, Question{
		Value:    400,
		Question: "What is Go?",
		Answer:   "A statically typed language from Google",
	})
	if err != nil {
		t.Fatalf("updateQuestion returned error: %v", err)
	}
	if updated.ID != added.ID {
		t.Errorf("Update changed the question ID from %q to %q", added.ID, updated.ID)
	}
	if updated.Value != 400 {
		t.Errorf("Expected updated value 400, got %d", updated.Value)
	}

	if err := game.deleteQuestion(added.ID); err != nil {
		t.Fatalf("deleteQuestion returned error: %v", err)
	}
	if err := game.deleteQuestion(added.ID); err != errNotFound {
		t.Errorf("Deleting a missing question should return errNotFound, got %v", err)
	}
}

func TestLoadBankAssignsIDs(t *testing.T) {
	game, _ := newTestGame(t)

	game.loadBank([]Question{
		{Value: 200, Question: "One"},
		{ID: "fixed", Value: 400, Question: "Two"},
	})

	bank := game.listBank()
	if len(bank) != 2 {
		t.Fatalf("Expected 2 questions, got %d", len(bank))
	}
	if bank[0].ID == "" {
		t.Error("Expected an ID to be assigned to the first question")
	}
	if bank[1].ID != "fixed" {
		t.Errorf("Existing ID should be kept, got %q", bank[1].ID)
	}
}

func TestCategoryAssignmentMovesQuestions(t *testing.T) {
	game, _ := newTestGame(t)

	question, _ := game.addQuestion(Question{Value: 600, Question: "What is MongoDB?"})

	if _, err := game.addCategory("Databases"); err != nil {
		t.Fatalf("addCategory returned error: %v", err)
	}
	if _, err := game.addCategory("Databases"); err != errConflict {
		t.Errorf("Duplicate category should return errConflict, got %v", err)
	}

	category, err := game.assignQuestion("Databases", question.ID)
	if err != nil {
		t.Fatalf("assignQuestion returned error: %v", err)
	}
	if len(category.Questions) != 1 || category.Questions[0].ID != question.ID {
		t.Errorf("Expected question on the board, got %#v", category.Questions)
	}
	if len(game.listBank()) != 0 {
		t.Error("Assigned question should leave the bank")
	}

	// A question can't be on the board and in the bank at once.
	if _, err := game.assignQuestion("Databases", question.ID); err != errNotFound {
		t.Errorf("Re-assigning a placed question should return errNotFound, got %v", err)
	}

	category, err = game.unassignQuestion("Databases", question.ID)
	if err != nil {
		t.Fatalf("unassignQuestion returned error: %v", err)
	}
	if len(category.Questions) != 0 {
		t.Errorf("Expected empty category after unassign, got %#v", category.Questions)
	}
	if len(game.listBank()) != 1 {
		t.Error("Unassigned question should return to the bank")
	}
}

func TestRemoveCategoryReturnsQuestionsToBank(t *testing.T) {
	game, _ := newTestGame(t)

	question, _ := game.addQuestion(Question{Value: 800, Question: "What is GraphQL?"})
	_, _ = game.addCategory("APIs")
	_, _ = game.assignQuestion("APIs", question.ID)

	if err := game.removeCategory("APIs"); err != nil {
		t.Fatalf("removeCategory returned error: %v", err)
	}
	if len(game.listCategories()) != 0 {
		t.Error("Expected no categories after removal")
	}
	if len(game.listBank()) != 1 {
		t.Error("Questions from a removed category should return to the bank")
	}

	if err := game.removeCategory("APIs"); err != errNotFound {
		t.Errorf("Removing a missing category should return errNotFound, got %v", err)
	}
}

func TestPlayerEndpoints(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"valid player", `{"name":"Team Tinsel"}`, http.StatusCreated},
		{"duplicate player", `{"name":"Team Tinsel"}`, http.StatusConflict},
		{"missing name", `{}`, http.StatusBadRequest},
		{"malformed JSON", `{"name":`, http.StatusBadRequest},
	}

	_, mux := newTestGame(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/players", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestScoreEndpoint(t *testing.T) {
	game, mux := newTestGame(t)

	player, _ := game.addPlayer("Team Sleigh")

	req := httptest.NewRequest(http.MethodPost, "/api/players/"+player.ID+"/score", strings.NewReader(`{"delta":1000}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var updated Player
	if err := json.Unmarshal(w.Body.Bytes(), &updated); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if updated.Score != 1000 {
		t.Errorf("Expected score 1000, got %d", updated.Score)
	}
}

func TestCategoryEndpoints(t *testing.T) {
	game, mux := newTestGame(t)

	question, _ := game.addQuestion(Question{Value: 200, Question: "What is Docker?"})

	req := httptest.NewRequest(http.MethodPost, "/api/categories", strings.NewReader(`{"name":"DevOps"}`))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("Creating category returned %d: %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/api/categories/DevOps/questions", strings.NewReader(`{"questionId":"`+question.ID+`"}`))
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Assigning question returned %d: %s", w.Code, w.Body.String())
	}

	var category Category
	if err := json.Unmarshal(w.Body.Bytes(), &category); err != nil {
		t.Fatalf("Failed to decode category: %v", err)
	}
	if len(category.Questions) != 1 {
		t.Errorf("Expected one question on the board, got %d", len(category.Questions))
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/categories/DevOps/questions/"+question.ID, nil)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Unassigning question returned %d: %s", w.Code, w.Body.String())
	}
}
