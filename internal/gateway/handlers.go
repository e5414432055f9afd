package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/draftvision/draftvision/internal/auth"
	"github.com/draftvision/draftvision/internal/draftroom"
	"github.com/draftvision/draftvision/internal/drafts"
	"github.com/draftvision/draftvision/internal/models"
	"github.com/draftvision/draftvision/internal/players"
	"github.com/draftvision/draftvision/internal/realtime"
	"github.com/draftvision/draftvision/internal/report"
	"github.com/draftvision/draftvision/internal/usage"
)

type ctxKey int

const userCtxKey ctxKey = iota

// API wires the HTTP surface over the application services.
type API struct {
	auth    *auth.Service
	players *players.Service
	drafts  *drafts.Service
	usage   *usage.Repository
	rooms   *RoomManager
	conns   *ConnectionManager
	rt      *realtime.Manager
	cache   *report.ValueCache
}

// NewAPI creates the API handler set.
func NewAPI(authSvc *auth.Service, playerSvc *players.Service, draftSvc *drafts.Service,
	usageRepo *usage.Repository, rooms *RoomManager, conns *ConnectionManager,
	rt *realtime.Manager, cache *report.ValueCache) *API {
	return &API{
		auth:    authSvc,
		players: playerSvc,
		drafts:  draftSvc,
		usage:   usageRepo,
		rooms:   rooms,
		conns:   conns,
		rt:      rt,
		cache:   cache,
	}
}

// Routes builds the router.
func (a *API) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", a.handleSignUp)
			r.Post("/signin", a.handleSignIn)
			r.Post("/signout", a.handleSignOut)
			r.Post("/refresh", a.handleRefresh)
			r.Post("/password-reset/request", a.handleResetRequest)
			r.Post("/password-reset/complete", a.handleResetComplete)
		})

		r.Get("/players", a.handleListPlayers)
		r.Get("/players/{playerID}/bio", a.handlePlayerBio)
		r.Get("/players/stats", a.handlePlayerStats)
		r.Get("/order", a.handleDraftOrder)

		r.Route("/rooms", func(r chi.Router) {
			r.Post("/", a.handleCreateRoom)
			r.Route("/{roomID}", func(r chi.Router) {
				r.Get("/state", a.handleRoomState)
				r.Post("/start", a.roomAction(func(room *draftroom.Room) error { return room.Start() }))
				r.Post("/pause", a.roomAction(func(room *draftroom.Room) error { return room.Pause("user request") }))
				r.Post("/resume", a.roomAction(func(room *draftroom.Room) error { return room.Resume() }))
				r.Post("/continue", a.roomAction(func(room *draftroom.Room) error { return room.ContinueRound() }))
				r.Post("/pick", a.handleMakePick)
				r.Get("/proposals", a.handleProposals)
				r.Post("/proposals/{index}/accept", a.handleAcceptProposal)
				r.Post("/trade", a.handleSubmitTrade)
				r.Get("/report", a.handleRoomReport)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(a.requireUser)
			r.Get("/session", a.handleSession)
			r.Get("/drafts", a.handleListDrafts)
			r.Post("/drafts", a.handleSaveDraft)
			r.Patch("/drafts/{draftID}/visibility", a.handleDraftVisibility)
			r.Post("/drafts/{draftID}/grade", a.handleGradeDraft)
			r.Delete("/drafts/{draftID}", a.handleDeleteDraft)
			r.Post("/usage/comparison", a.handleUsage((*usage.Repository).IncrementComparisonCount))
			r.Post("/usage/prediction", a.handleUsage((*usage.Repository).IncrementPredictionCount))
		})

		r.Get("/realtime/health", a.handleRealtimeHealth)
		r.Post("/realtime/reconnect", a.handleRealtimeReconnect)
	})

	r.Get("/ws/rooms/{roomID}", a.handleRoomSocket)

	return r
}

// requireUser resolves the bearer token to a user. An expired access
// token is retried once through X-Refresh-Token before the request is
// rejected; rotated tokens come back in response headers.
func (a *API) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		user, err := a.auth.Session(r.Context(), token)
		if errors.Is(err, auth.ErrExpiredToken) {
			refresh := r.Header.Get("X-Refresh-Token")
			if refresh == "" {
				respondError(w, http.StatusUnauthorized, "session expired")
				return
			}
			session, rerr := a.auth.Refresh(r.Context(), refresh)
			if rerr != nil {
				respondError(w, http.StatusUnauthorized, "session expired")
				return
			}
			w.Header().Set("X-Access-Token", session.AccessToken)
			w.Header().Set("X-Refresh-Token", session.RefreshToken)
			user = session.User
			err = nil
		}
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid session")
			return
		}

		ctx := context.WithValue(r.Context(), userCtxKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userFrom(r *http.Request) *models.User {
	u, _ := r.Context().Value(userCtxKey).(*models.User)
	return u
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return h[len(prefix):]
	}
	return ""
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username,omitempty"`
}

func (a *API) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if !decode(w, r, &req) {
		return
	}
	user, err := a.auth.SignUp(r.Context(), req.Email, req.Password, req.Username)
	if err != nil {
		respondAuthError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if !decode(w, r, &req) {
		return
	}
	session, err := a.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		respondAuthError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (a *API) handleSignOut(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decode(w, r, &req) {
		return
	}
	if err := a.auth.SignOut(r.Context(), req.RefreshToken); err != nil {
		respondError(w, http.StatusInternalServerError, "sign out failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decode(w, r, &req) {
		return
	}
	session, err := a.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		respondAuthError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (a *API) handleResetRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decode(w, r, &req) {
		return
	}
	// The token would be delivered out of band; it is never echoed back.
	if _, err := a.auth.RequestPasswordReset(r.Context(), req.Email); err != nil {
		respondError(w, http.StatusInternalServerError, "reset request failed")
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (a *API) handleResetComplete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := a.auth.CompletePasswordReset(r.Context(), req.Token, req.NewPassword); err != nil {
		respondAuthError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleSession(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, userFrom(r))
}

func (a *API) handleListPlayers(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, a.players.Players())
}

func (a *API) handlePlayerBio(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "playerID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid player id")
		return
	}
	bio, err := a.players.Bio(r.Context(), id)
	if err != nil {
		if errors.Is(err, players.ErrPlayerNotFound) {
			respondError(w, http.StatusNotFound, "player not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load bio")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"bio": bio})
}

func (a *API) handlePlayerStats(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	position := r.URL.Query().Get("position")
	if name == "" || position == "" {
		respondError(w, http.StatusBadRequest, "name and position are required")
		return
	}
	stats, err := a.players.Stats(r.Context(), name, position)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (a *API) handleDraftOrder(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, err := strconv.Atoi(q.Get("year"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid year")
		return
	}
	rounds, err := strconv.Atoi(q.Get("rounds"))
	if err != nil || rounds < 1 {
		respondError(w, http.StatusBadRequest, "invalid rounds")
		return
	}
	order, err := a.rooms.Order(r.Context(), year, rounds)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load draft order")
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (a *API) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var cfg models.DraftConfiguration
	if !decode(w, r, &cfg) {
		return
	}
	room, err := a.rooms.Create(r.Context(), cfg)
	if err != nil {
		if errors.Is(err, draftroom.ErrMissingConfig) {
			// Direct navigation without setup state: send the client back.
			respondJSON(w, http.StatusBadRequest, map[string]string{
				"error":    err.Error(),
				"redirect": "/setup",
			})
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, room.Snapshot())
}

func (a *API) roomFrom(w http.ResponseWriter, r *http.Request) *draftroom.Room {
	id, err := uuid.Parse(chi.URLParam(r, "roomID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid room id")
		return nil
	}
	room, err := a.rooms.Get(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "room not found")
		return nil
	}
	return room
}

func (a *API) roomAction(action func(*draftroom.Room) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		room := a.roomFrom(w, r)
		if room == nil {
			return
		}
		if err := action(room); err != nil {
			respondError(w, http.StatusConflict, err.Error())
			return
		}
		respondJSON(w, http.StatusOK, room.Snapshot())
	}
}

func (a *API) handleRoomState(w http.ResponseWriter, r *http.Request) {
	room := a.roomFrom(w, r)
	if room == nil {
		return
	}
	respondJSON(w, http.StatusOK, room.Snapshot())
}

func (a *API) handleMakePick(w http.ResponseWriter, r *http.Request) {
	room := a.roomFrom(w, r)
	if room == nil {
		return
	}
	var req struct {
		PlayerID int `json:"player_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := room.MakePick(req.PlayerID); err != nil {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, room.Snapshot())
}

func (a *API) handleProposals(w http.ResponseWriter, r *http.Request) {
	room := a.roomFrom(w, r)
	if room == nil {
		return
	}
	respondJSON(w, http.StatusOK, room.Proposals())
}

func (a *API) handleAcceptProposal(w http.ResponseWriter, r *http.Request) {
	room := a.roomFrom(w, r)
	if room == nil {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid proposal index")
		return
	}
	if err := room.AcceptProposal(index); err != nil {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, room.Snapshot())
}

func (a *API) handleSubmitTrade(w http.ResponseWriter, r *http.Request) {
	room := a.roomFrom(w, r)
	if room == nil {
		return
	}
	var proposal models.TradeProposal
	if !decode(w, r, &proposal) {
		return
	}
	if err := room.SubmitTrade(proposal); err != nil {
		if errors.Is(err, draftroom.ErrInvalidTrade) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, room.Snapshot())
}

func (a *API) handleRoomReport(w http.ResponseWriter, r *http.Request) {
	room := a.roomFrom(w, r)
	if room == nil {
		return
	}
	if room.Status() != models.RoomStatusCompleted {
		respondError(w, http.StatusConflict, "draft is not complete")
		return
	}
	rep := report.Generate(r.Context(), room.ID.String(), room.Picks(), a.cache)
	respondJSON(w, http.StatusOK, rep)
}

func (a *API) handleListDrafts(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	q := r.URL.Query()
	filter := drafts.ListFilter{
		NameContains: q.Get("name"),
		PublicOnly:   q.Get("public") == "true",
		SortBy:       q.Get("sort"),
		Descending:   q.Get("desc") == "true",
	}
	list, err := a.drafts.List(r.Context(), user.ID, filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list drafts")
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (a *API) handleSaveDraft(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	var req drafts.SaveDraftRequest
	if !decode(w, r, &req) {
		return
	}
	saved, err := a.drafts.Save(r.Context(), user.ID, req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, saved)
}

func (a *API) handleDraftVisibility(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	draftID, err := uuid.Parse(chi.URLParam(r, "draftID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid draft id")
		return
	}
	var req struct {
		IsPublic bool `json:"is_public"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := a.drafts.SetVisibility(r.Context(), user.ID, draftID, req.IsPublic); err != nil {
		respondDraftError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleGradeDraft(w http.ResponseWriter, r *http.Request) {
	draftID, err := uuid.Parse(chi.URLParam(r, "draftID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid draft id")
		return
	}
	rep, err := a.drafts.Grade(r.Context(), draftID)
	if err != nil {
		respondDraftError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rep)
}

func (a *API) handleDeleteDraft(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	draftID, err := uuid.Parse(chi.URLParam(r, "draftID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid draft id")
		return
	}
	if err := a.drafts.Delete(r.Context(), user.ID, draftID); err != nil {
		respondDraftError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleUsage(increment func(*usage.Repository, context.Context, uuid.UUID) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := userFrom(r)
		if err := increment(a.usage, r.Context(), user.ID); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to update usage")
			return
		}
		counters, err := a.usage.GetCounters(r.Context(), user.ID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to read usage")
			return
		}
		respondJSON(w, http.StatusOK, counters)
	}
}

func (a *API) handleRealtimeHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]bool{"healthy": a.rt.Healthy()})
}

func (a *API) handleRealtimeReconnect(w http.ResponseWriter, r *http.Request) {
	if err := a.rt.Reconnect(r.Context()); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"error":        err.Error(),
			"force_reload": true,
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"healthy": a.rt.Healthy()})
}

func (a *API) handleRoomSocket(w http.ResponseWriter, r *http.Request) {
	roomID, err := uuid.Parse(chi.URLParam(r, "roomID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid room id")
		return
	}
	if _, err := a.rooms.Get(roomID); err != nil {
		respondError(w, http.StatusNotFound, "room not found")
		return
	}
	userID := r.URL.Query().Get("user_id")
	if err := a.conns.Upgrade(w, r, userID, roomID); err != nil {
		log.Error().Err(err).Str("room_id", roomID.String()).Msg("websocket upgrade failed")
	}
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

func respondAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrInvalidSignature):
		respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrEmailTaken):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrResetTokenInvalid):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func respondDraftError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, drafts.ErrNotOwner):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, drafts.ErrDraftNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
