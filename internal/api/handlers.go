package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/roach88/stakewake/internal/engine"
	"github.com/roach88/stakewake/internal/ir"
)

// createChallengeRequest is the body of POST /challenges. Value is the
// amount sent with the call and defaults to Deposit.
type createChallengeRequest struct {
	Deposit      decimal.Decimal     `json:"deposit"`
	WakeUpTime   int64               `json:"wake_up_time"`
	DurationDays int                 `json:"duration_days"`
	Value        decimal.NullDecimal `json:"value"`
}

// createSocialRequest is the body of POST /social-challenges. Value
// defaults to the deposit times the number of participants.
type createSocialRequest struct {
	Participants          []ir.Identity       `json:"participants"`
	DepositPerParticipant decimal.Decimal     `json:"deposit_per_participant"`
	WakeUpTime            int64               `json:"wake_up_time"`
	DurationDays          int                 `json:"duration_days"`
	Value                 decimal.NullDecimal `json:"value"`
}

type confirmSocialRequest struct {
	Participant ir.Identity `json:"participant"`
}

type oracleBody struct {
	Oracle ir.Identity `json:"oracle"`
}

// challengeList is the body of GET /users/{identity}/challenges.
type challengeList struct {
	Personal []ir.Challenge       `json:"personal"`
	Social   []ir.SocialChallenge `json:"social"`
}

func caller(r *http.Request) ir.Identity {
	return ir.Identity(r.Header.Get(CallerHeader))
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid challenge id")
		return 0, false
	}
	return id, true
}

func pathIdentity(r *http.Request) ir.Identity {
	return ir.NormalizeIdentity(mux.Vars(r)["identity"])
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return false
	}
	return true
}

func (s *Server) createChallenge(w http.ResponseWriter, r *http.Request) {
	var req createChallengeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	attached := req.Deposit
	if req.Value.Valid {
		attached = req.Value.Decimal
	}

	c, err := s.engine.Create(r.Context(), engine.CreateRequest{
		Owner:        caller(r),
		Deposit:      req.Deposit,
		WakeUpTime:   req.WakeUpTime,
		DurationDays: req.DurationDays,
		Attached:     attached,
	})
	if err != nil {
		s.respondWithEngineError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, c)
}

func (s *Server) createSocial(w http.ResponseWriter, r *http.Request) {
	var req createSocialRequest
	if !decodeBody(w, r, &req) {
		return
	}
	attached := req.DepositPerParticipant.Mul(decimal.NewFromInt(int64(len(req.Participants))))
	if req.Value.Valid {
		attached = req.Value.Decimal
	}

	sc, err := s.engine.CreateSocial(r.Context(), engine.CreateSocialRequest{
		Creator:               caller(r),
		Participants:          req.Participants,
		DepositPerParticipant: req.DepositPerParticipant,
		WakeUpTime:            req.WakeUpTime,
		DurationDays:          req.DurationDays,
		Attached:              attached,
	})
	if err != nil {
		s.respondWithEngineError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, sc)
}

func (s *Server) getChallenge(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := s.engine.Get(r.Context(), id)
	if err != nil {
		s.respondWithEngineError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}

func (s *Server) getSocial(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	sc, err := s.engine.GetSocial(r.Context(), id)
	if err != nil {
		s.respondWithEngineError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, sc)
}

func (s *Server) confirmWakeUp(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := s.engine.ConfirmWakeUp(r.Context(), id, caller(r))
	if err != nil {
		s.respondWithEngineError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}

func (s *Server) confirmSocialWakeUp(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req confirmSocialRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sc, err := s.engine.ConfirmSocialWakeUp(r.Context(), id, caller(r), req.Participant)
	if err != nil {
		s.respondWithEngineError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, sc)
}

func (s *Server) finalize(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := s.engine.Finalize(r.Context(), id, caller(r))
	if err != nil {
		s.respondWithEngineError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}

func (s *Server) finalizeSocial(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	sc, err := s.engine.FinalizeSocial(r.Context(), id, caller(r))
	if err != nil {
		s.respondWithEngineError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, sc)
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	entry, err := s.engine.Profile(r.Context(), pathIdentity(r))
	if err != nil {
		s.respondWithEngineError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, entry)
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	st, err := s.engine.Stats(r.Context(), pathIdentity(r))
	if err != nil {
		s.respondWithEngineError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, st)
}

func (s *Server) listChallenges(w http.ResponseWriter, r *http.Request) {
	id := pathIdentity(r)
	personal, err := s.engine.ListByOwner(r.Context(), id)
	if err != nil {
		s.respondWithEngineError(w, r, err)
		return
	}
	social, err := s.engine.ListSocial(r.Context(), id)
	if err != nil {
		s.respondWithEngineError(w, r, err)
		return
	}
	list := challengeList{Personal: personal, Social: social}
	if list.Personal == nil {
		list.Personal = []ir.Challenge{}
	}
	if list.Social == nil {
		list.Social = []ir.SocialChallenge{}
	}
	respondWithJSON(w, http.StatusOK, list)
}

func (s *Server) getOracle(w http.ResponseWriter, r *http.Request) {
	current, err := s.engine.Oracle(r.Context())
	if err != nil {
		s.respondWithEngineError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, oracleBody{Oracle: current})
}

func (s *Server) setOracle(w http.ResponseWriter, r *http.Request) {
	var req oracleBody
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.engine.SetOracleAddress(r.Context(), caller(r), req.Oracle); err != nil {
		s.respondWithEngineError(w, r, err)
		return
	}
	s.getOracle(w, r)
}
