// Jeopardy board state: players with scores, a bank of reusable questions,
// and the categories curated onto the board for the evening. Everything is
// held in memory for the lifetime of the process; a game night doesn't
// outlive a restart.

package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
)

type Player struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type Question struct {
	ID         string   `json:"id"`
	Value      int      `json:"value"`
	Question   string   `json:"question"`
	Answer     string   `json:"answer"`
	Categories []string `json:"categories,omitempty"`
	Image      string   `json:"image,omitempty"`
}

type Category struct {
	Name      string     `json:"name"`
	Questions []Question `json:"questions"`
}

var (
	errNotFound = errors.New("not found")
	errConflict = errors.New("already exists")
	errBadInput = errors.New("invalid input")
)

// Game holds all non-buzzer state for a session. Reads take the shared
// lock; every mutation takes the exclusive lock, so a question is never in
// the bank and on the board at the same time.
type Game struct {
	mu         sync.RWMutex
	players    []Player
	bank       []Question
	categories []Category
}

func newGame() *Game {
	return &Game{}
}

// loadBank replaces the question bank, assigning IDs to entries that lack
// one. Used once at startup with the built-in or user-provided bank.
func (g *Game) loadBank(questions []Question) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.bank = make([]Question, 0, len(questions))
	for _, q := range questions {
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		g.bank = append(g.bank, q)
	}
}

func (g *Game) listPlayers() []Player {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Player, len(g.players))
	copy(out, g.players)
	return out
}

func (g *Game) addPlayer(name string) (Player, error) {
	if name == "" {
		return Player{}, errBadInput
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for _, p := range g.players {
		if p.Name == name {
			return Player{}, errConflict
		}
	}

	player := Player{
		ID:   uuid.NewString(),
		Name: name,
	}
	g.players = append(g.players, player)

	return player, nil
}

func (g *Game) removePlayer(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i, p := range g.players {
		if p.ID == id {
			g.players = append(g.players[:i], g.players[i+1:]...)
			return nil
		}
	}

	return errNotFound
}

// adjustScore applies a signed delta to a player's score. The board sends
// ±question value when awarding or docking points.
func (g *Game) adjustScore(id string, delta int) (Player, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i := range g.players {
		if g.players[i].ID == id {
			g.players[i].Score += delta
			return g.players[i], nil
		}
	}

	return Player{}, errNotFound
}

func (g *Game) listBank() []Question {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Question, len(g.bank))
	copy(out, g.bank)
	return out
}

func (g *Game) addQuestion(q Question) (Question, error) {
	if q.Question == "" || q.Value <= 0 {
		return Question{}, errBadInput
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	q.ID = uuid.NewString()
	g.bank = append(g.bank, q)

	return q, nil
}

func (g *Game) updateQuestion(id string, q Question) (Question, error) {
	if q.Question == "" || q.Value <= 0 {
		return Question{}, errBadInput
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for i := range g.bank {
		if g.bank[i].ID == id {
			q.ID = id
			g.bank[i] = q
			return q, nil
		}
	}

	return Question{}, errNotFound
}

// deleteQuestion removes a question from the bank. Questions already placed
// on the board have to be unassigned first.
func (g *Game) deleteQuestion(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i, q := range g.bank {
		if q.ID == id {
			g.bank = append(g.bank[:i], g.bank[i+1:]...)
			return nil
		}
	}

	return errNotFound
}

// copyCategory detaches a category from the live slices, so callers can
// marshal it outside the lock.
func copyCategory(c Category) Category {
	return Category{
		Name:      c.Name,
		Questions: append([]Question{}, c.Questions...),
	}
}

func (g *Game) listCategories() []Category {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Category, len(g.categories))
	for i, c := range g.categories {
		out[i] = copyCategory(c)
	}
	return out
}

func (g *Game) addCategory(name string) (Category, error) {
	if name == "" {
		return Category{}, errBadInput
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for _, c := range g.categories {
		if c.Name == name {
			return Category{}, errConflict
		}
	}

	category := Category{
		Name:      name,
		Questions: []Question{},
	}
	g.categories = append(g.categories, category)

	return category, nil
}

// removeCategory takes a category off the board, returning its questions to
// the bank so they can be reused.
func (g *Game) removeCategory(name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i, c := range g.categories {
		if c.Name == name {
			g.bank = append(g.bank, c.Questions...)
			g.categories = append(g.categories[:i], g.categories[i+1:]...)
			return nil
		}
	}

	return errNotFound
}

// assignQuestion moves a question from the bank onto a board category.
func (g *Game) assignQuestion(categoryName, questionID string) (Category, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	catIndex := -1
	for i, c := range g.categories {
		if c.Name == categoryName {
			catIndex = i
			break
		}
	}
	if catIndex == -1 {
		return Category{}, errNotFound
	}

	for i, q := range g.bank {
		if q.ID == questionID {
			g.bank = append(g.bank[:i], g.bank[i+1:]...)
			g.categories[catIndex].Questions = append(g.categories[catIndex].Questions, q)
			return copyCategory(g.categories[catIndex]), nil
		}
	}

	return Category{}, errNotFound
}

// unassignQuestion moves a question off the board, back into the bank.
func (g *Game) unassignQuestion(categoryName, questionID string) (Category, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i, c := range g.categories {
		if c.Name != categoryName {
			continue
		}
		for j, q := range c.Questions {
			if q.ID == questionID {
				g.categories[i].Questions = append(c.Questions[:j], c.Questions[j+1:]...)
				g.bank = append(g.bank, q)
				return copyCategory(g.categories[i]), nil
			}
		}
		return Category{}, errNotFound
	}

	return Category{}, errNotFound
}

// loadQuestionBank reads the question bank from cfg.questions if set,
// falling back to the bank embedded in the binary.
func loadQuestionBank(cfg *Config) ([]Question, error) {
	var data []byte
	var err error

	if cfg.questions != "" {
		data, err = os.ReadFile(cfg.questions)
	} else {
		data, err = assets.ReadFile("assets/questions.json")
	}
	if err != nil {
		return nil, err
	}

	var questions []Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, err
	}

	return questions, nil
}

func gameErrorStatus(err error) int {
	switch {
	case errors.Is(err, errNotFound):
		return http.StatusNotFound
	case errors.Is(err, errConflict):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func serveListPlayers(cfg *Config, g *Game) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		writeJSON(w, http.StatusOK, g.listPlayers())
	}
}

func serveAddPlayer(cfg *Config, g *Game) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var req struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "Invalid input")
			return
		}

		player, err := g.addPlayer(req.Name)
		if err != nil {
			writeJSONError(w, gameErrorStatus(err), err.Error())
			return
		}

		logf(cfg, "GAME: Player %q joined", player.Name)

		writeJSON(w, http.StatusCreated, player)
	}
}

func serveRemovePlayer(cfg *Config, g *Game) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		if err := g.removePlayer(p.ByName("id")); err != nil {
			writeJSONError(w, gameErrorStatus(err), err.Error())
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func serveAdjustScore(cfg *Config, g *Game) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		var req struct {
			Delta int `json:"delta"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "Invalid input")
			return
		}

		player, err := g.adjustScore(p.ByName("id"), req.Delta)
		if err != nil {
			writeJSONError(w, gameErrorStatus(err), err.Error())
			return
		}

		logf(cfg, "GAME: Player %q now at %d points", player.Name, player.Score)

		writeJSON(w, http.StatusOK, player)
	}
}

func serveListQuestions(cfg *Config, g *Game) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		writeJSON(w, http.StatusOK, g.listBank())
	}
}

func serveAddQuestion(cfg *Config, g *Game) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var q Question
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			writeJSONError(w, http.StatusBadRequest, "Invalid input")
			return
		}

		added, err := g.addQuestion(q)
		if err != nil {
			writeJSONError(w, gameErrorStatus(err), err.Error())
			return
		}

		writeJSON(w, http.StatusCreated, added)
	}
}

func serveUpdateQuestion(cfg *Config, g *Game) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		var q Question
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			writeJSONError(w, http.StatusBadRequest, "Invalid input")
			return
		}

		updated, err := g.updateQuestion(p.ByName("id"), q)
		if err != nil {
			writeJSONError(w, gameErrorStatus(err), err.Error())
			return
		}

		writeJSON(w, http.StatusOK, updated)
	}
}

func serveDeleteQuestion(cfg *Config, g *Game) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		if err := g.deleteQuestion(p.ByName("id")); err != nil {
			writeJSONError(w, gameErrorStatus(err), err.Error())
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func serveListCategories(cfg *Config, g *Game) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		writeJSON(w, http.StatusOK, g.listCategories())
	}
}

func serveAddCategory(cfg *Config, g *Game) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var req struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "Invalid input")
			return
		}

		category, err := g.addCategory(req.Name)
		if err != nil {
			writeJSONError(w, gameErrorStatus(err), err.Error())
			return
		}

		logf(cfg, "GAME: Category %q added to the board", category.Name)

		writeJSON(w, http.StatusCreated, category)
	}
}

func serveRemoveCategory(cfg *Config, g *Game) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		if err := g.removeCategory(p.ByName("name")); err != nil {
			writeJSONError(w, gameErrorStatus(err), err.Error())
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func serveAssignQuestion(cfg *Config, g *Game) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		var req struct {
			QuestionID string `json:"questionId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "Invalid input")
			return
		}

		category, err := g.assignQuestion(p.ByName("name"), req.QuestionID)
		if err != nil {
			writeJSONError(w, gameErrorStatus(err), err.Error())
			return
		}

		writeJSON(w, http.StatusOK, category)
	}
}

func serveUnassignQuestion(cfg *Config, g *Game) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		category, err := g.unassignQuestion(p.ByName("name"), p.ByName("id"))
		if err != nil {
			writeJSONError(w, gameErrorStatus(err), err.Error())
			return
		}

		writeJSON(w, http.StatusOK, category)
	}
}

// registerGameAPI exposes player, question bank, and board category
// management under $prefix/api/.
func registerGameAPI(cfg *Config, g *Game, mux *httprouter.Router) {
	mux.GET(cfg.prefix+"/api/players", serveListPlayers(cfg, g))
	mux.POST(cfg.prefix+"/api/players", serveAddPlayer(cfg, g))
	mux.DELETE(cfg.prefix+"/api/players/:id", serveRemovePlayer(cfg, g))
	mux.POST(cfg.prefix+"/api/players/:id/score", serveAdjustScore(cfg, g))

	mux.GET(cfg.prefix+"/api/questions", serveListQuestions(cfg, g))
	mux.POST(cfg.prefix+"/api/questions", serveAddQuestion(cfg, g))
	mux.PUT(cfg.prefix+"/api/questions/:id", serveUpdateQuestion(cfg, g))
	mux.DELETE(cfg.prefix+"/api/questions/:id", serveDeleteQuestion(cfg, g))

	mux.GET(cfg.prefix+"/api/categories", serveListCategories(cfg, g))
	mux.POST(cfg.prefix+"/api/categories", serveAddCategory(cfg, g))
	mux.DELETE(cfg.prefix+"/api/categories/:name", serveRemoveCategory(cfg, g))
	mux.POST(cfg.prefix+"/api/categories/:name/questions", serveAssignQuestion(cfg, g))
	mux.DELETE(cfg.prefix+"/api/categories/:name/questions/:id", serveUnassignQuestion(cfg, g))
}
