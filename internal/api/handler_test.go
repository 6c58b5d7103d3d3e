package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"agrotalent/matching-service/internal/api"
	"agrotalent/matching-service/internal/match"
	"agrotalent/matching-service/internal/model"
	"agrotalent/matching-service/internal/notify"
)

const (
	jobID       = "0b9f3c51-7f0e-4f1e-9d3c-2a8e5d6b7c41"
	applicantID = "5d2e8a17-43c9-4b6f-a0e1-9c7b3f2d8e65"
	userID      = "8a6e0804-2bd0-4672-b79d-d97027f9071a"
	notifA      = "c3a1f0e2-6b4d-4d8e-9f17-2e5a7b9c0d13"
	notifB      = "d4b2a1f3-7c5e-4e9f-8a28-3f6b8c0d1e24"
)

var _ = Describe("Handler", func() {
	var (
		router  *gin.Engine
		matcher *mockMatcher
		inbox   *mockNotifications
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		matcher = &mockMatcher{}
		inbox = &mockNotifications{}
		h := api.NewHandler(matcher, inbox, nil, 2)
		router = api.NewRouter(h, api.RouterConfig{Service: "matching-service", Version: "test"})
	})

	do := func(method, path string, body any, headers ...string) (*httptest.ResponseRecorder, map[string]any) {
		var buf bytes.Buffer
		switch b := body.(type) {
		case nil:
		case string:
			buf.WriteString(b)
		default:
			Expect(json.NewEncoder(&buf).Encode(b)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		for i := 0; i+1 < len(headers); i += 2 {
			req.Header.Set(headers[i], headers[i+1])
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		var resp map[string]any
		if w.Body.Len() > 0 {
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		}
		return w, resp
	}

	Describe("GET /health", func() {
		It("reports the service and version", func() {
			w, resp := do(http.MethodGet, "/health", nil)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(resp).To(HaveKeyWithValue("status", "ok"))
			Expect(resp).To(HaveKeyWithValue("service", "matching-service"))
			Expect(resp).To(HaveKeyWithValue("version", "test"))
		})
	})

	Describe("GET /matches/score", func() {
		BeforeEach(func() {
			matcher.explainFn = func(_ context.Context, j, a string) (match.Score, error) {
				Expect(j).To(Equal(jobID))
				Expect(a).To(Equal(applicantID))
				return match.Score{Value: 70, Reasons: []string{match.ReasonLocationMatch, match.ReasonVerified}}, nil
			}
		})

		It("returns the score without reasons by default", func() {
			w, resp := do(http.MethodGet, "/matches/score?job_id="+jobID+"&applicant_id="+applicantID, nil)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(resp).To(HaveKeyWithValue("match_score", BeNumerically("==", 70)))
			Expect(resp).NotTo(HaveKey("reasons"))
		})

		It("includes reasons with explain=true", func() {
			w, resp := do(http.MethodGet, "/matches/score?explain=true&job_id="+jobID+"&applicant_id="+applicantID, nil)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(resp["reasons"]).To(ConsistOf(match.ReasonLocationMatch, match.ReasonVerified))
		})

		It("rejects a malformed id", func() {
			w, resp := do(http.MethodGet, "/matches/score?job_id=42&applicant_id="+applicantID, nil)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(resp).To(HaveKeyWithValue("error", "job_id: must be a UUID"))
		})

		It("rejects a missing applicant", func() {
			w, resp := do(http.MethodGet, "/matches/score?job_id="+jobID, nil)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(resp).To(HaveKeyWithValue("error", "applicant_id: is required"))
		})

		It("hides repository errors", func() {
			matcher.explainFn = func(context.Context, string, string) (match.Score, error) {
				return match.Score{}, errors.New("pgx: connection refused")
			}
			w, resp := do(http.MethodGet, "/matches/score?job_id="+jobID+"&applicant_id="+applicantID, nil)
			Expect(w.Code).To(Equal(http.StatusInternalServerError))
			Expect(resp).To(HaveKeyWithValue("error", "internal server error"))
		})
	})

	Describe("GET /matches/jobs/:jobID/applicants", func() {
		It("returns the ranked applicants", func() {
			matcher.forJobFn = func(_ context.Context, j string) ([]model.MatchResult, error) {
				return []model.MatchResult{
					{ApplicantID: "a", JobID: j, MatchScore: 95},
					{ApplicantID: "b", JobID: j, MatchScore: 70},
				}, nil
			}
			w, resp := do(http.MethodGet, "/matches/jobs/"+jobID+"/applicants", nil)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(resp["matches"]).To(HaveLen(2))
		})

		It("returns each match with the applicant profile", func() {
			matcher.forJobFn = func(_ context.Context, j string) ([]model.MatchResult, error) {
				return []model.MatchResult{{
					ApplicantID: applicantID, JobID: j, MatchScore: 95,
					Applicant: &model.Profile{ID: applicantID, FullName: "Kofi Boateng", Role: model.RoleGraduate},
				}}, nil
			}
			_, resp := do(http.MethodGet, "/matches/jobs/"+jobID+"/applicants", nil)
			matches := resp["matches"].([]any)
			Expect(matches[0]).To(HaveKeyWithValue("applicant", HaveKeyWithValue("full_name", "Kofi Boateng")))
		})

		It("returns an empty list rather than null", func() {
			w, _ := do(http.MethodGet, "/matches/jobs/"+jobID+"/applicants", nil)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(MatchJSON(`{"matches": []}`))
		})

		It("rejects a malformed job id", func() {
			w, _ := do(http.MethodGet, "/matches/jobs/not-a-uuid/applicants", nil)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("GET /matches/applicants/:applicantID/jobs", func() {
		var regional, everywhere []model.MatchResult

		BeforeEach(func() {
			regional = []model.MatchResult{{JobID: "j1", MatchScore: 60, Job: &model.Job{ID: "j1", Title: "Farm hand", Location: "Volta"}}}
			everywhere = []model.MatchResult{{JobID: "j2", MatchScore: 90}, {JobID: "j1", MatchScore: 60}, {JobID: "j3", MatchScore: 30}}
			matcher.forApplicantFn = func(context.Context, string) ([]model.MatchResult, error) { return regional, nil }
			matcher.allRegionsFn = func(context.Context, string) ([]model.MatchResult, error) { return everywhere, nil }
		})

		It("narrows to the applicant's region by default", func() {
			w, resp := do(http.MethodGet, "/matches/applicants/"+applicantID+"/jobs", nil)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(resp["matches"]).To(HaveLen(1))
		})

		It("returns each match with its job", func() {
			_, resp := do(http.MethodGet, "/matches/applicants/"+applicantID+"/jobs", nil)
			matches := resp["matches"].([]any)
			Expect(matches[0]).To(HaveKeyWithValue("job", HaveKeyWithValue("title", "Farm hand")))
			Expect(matches[0]).NotTo(HaveKey("applicant"))
		})

		It("caps the default list", func() {
			regional = everywhere
			w, resp := do(http.MethodGet, "/matches/applicants/"+applicantID+"/jobs", nil)
			Expect(w.Code).To(Equal(http.StatusOK))
			matches := resp["matches"].([]any)
			Expect(matches).To(HaveLen(2))
			Expect(matches[0]).To(HaveKeyWithValue("job_id", "j2"))
		})

		It("returns every match across all regions", func() {
			w, resp := do(http.MethodGet, "/matches/applicants/"+applicantID+"/jobs?all_regions=true", nil)
			Expect(w.Code).To(Equal(http.StatusOK))
			matches := resp["matches"].([]any)
			Expect(matches).To(HaveLen(3))
			Expect(matches[0]).To(HaveKeyWithValue("job_id", "j2"))
		})
	})

	Describe("POST /matches/jobs/:jobID/notify", func() {
		It("returns the fan-out report", func() {
			matcher.notifyFn = func(_ context.Context, j string) (*match.FanOutReport, error) {
				return &match.FanOutReport{
					JobID:     j,
					Selected:  3,
					Delivered: 2,
					Failed:    []match.DispatchFailure{{ApplicantID: applicantID, Error: "unknown recipient"}},
				}, nil
			}
			w, resp := do(http.MethodPost, "/matches/jobs/"+jobID+"/notify", nil)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(resp).To(HaveKeyWithValue("selected", BeNumerically("==", 3)))
			Expect(resp).To(HaveKeyWithValue("delivered", BeNumerically("==", 2)))
			Expect(resp["failed"]).To(ConsistOf(HaveKeyWithValue("applicant_id", applicantID)))
		})

		It("returns 500 when the job cannot be loaded", func() {
			matcher.notifyFn = func(context.Context, string) (*match.FanOutReport, error) {
				return nil, errors.New("load job: timeout")
			}
			w, _ := do(http.MethodPost, "/matches/jobs/"+jobID+"/notify", nil)
			Expect(w.Code).To(Equal(http.StatusInternalServerError))
		})
	})

	Describe("GET /notifications", func() {
		var gotUser string
		var gotOpts notify.ListOptions

		BeforeEach(func() {
			inbox.listFn = func(_ context.Context, u string, opts notify.ListOptions) ([]model.Notification, error) {
				gotUser, gotOpts = u, opts
				return []model.Notification{{ID: notifA, UserID: u, Title: match.MatchFoundTitle}}, nil
			}
		})

		It("takes the user from the query", func() {
			w, resp := do(http.MethodGet, "/notifications?user_id="+userID, nil)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(gotUser).To(Equal(userID))
			Expect(gotOpts.UnreadOnly).To(BeFalse())
			Expect(resp["notifications"]).To(HaveLen(1))
		})

		It("falls back to the gateway header and honours unread", func() {
			w, _ := do(http.MethodGet, "/notifications?unread=true", nil, api.UserHeader, userID)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(gotUser).To(Equal(userID))
			Expect(gotOpts.UnreadOnly).To(BeTrue())
		})

		It("requires a user", func() {
			w, resp := do(http.MethodGet, "/notifications", nil)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(resp).To(HaveKeyWithValue("error", "user_id: is required"))
		})
	})

	Describe("PATCH /notifications", func() {
		var gotIDs []string

		BeforeEach(func() {
			gotIDs = nil
			inbox.markReadFn = func(_ context.Context, _ string, ids []string) (int64, error) {
				gotIDs = ids
				if ids == nil {
					return 5, nil
				}
				return int64(len(ids)), nil
			}
		})

		It("marks the given notifications", func() {
			body := map[string]any{"user_id": userID, "notification_ids": []string{notifA, notifB}}
			w, resp := do(http.MethodPatch, "/notifications", body)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(gotIDs).To(Equal([]string{notifA, notifB}))
			Expect(resp).To(HaveKeyWithValue("success", true))
			Expect(resp).To(HaveKeyWithValue("updated", BeNumerically("==", 2)))
		})

		It("marks everything with mark_all_read", func() {
			w, resp := do(http.MethodPatch, "/notifications", map[string]any{"mark_all_read": true}, api.UserHeader, userID)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(gotIDs).To(BeNil())
			Expect(resp).To(HaveKeyWithValue("updated", BeNumerically("==", 5)))
		})

		It("requires ids or mark_all_read", func() {
			w, resp := do(http.MethodPatch, "/notifications", map[string]any{"user_id": userID})
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(resp).To(HaveKeyWithValue("error", "notification_ids or mark_all_read is required"))
		})

		It("rejects malformed ids", func() {
			body := map[string]any{"user_id": userID, "notification_ids": []string{"n1"}}
			w, resp := do(http.MethodPatch, "/notifications", body)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(resp).To(HaveKeyWithValue("error", "notification_ids: must be a UUID"))
		})

		It("rejects an invalid body", func() {
			w, resp := do(http.MethodPatch, "/notifications", "{")
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(resp).To(HaveKeyWithValue("error", "invalid JSON body"))
		})
	})
})
