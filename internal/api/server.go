package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"

	"gig-wizard/internal/gig"
	"gig-wizard/internal/migrate"
	"gig-wizard/internal/model"
	"gig-wizard/internal/refclient"
	"gig-wizard/internal/resolver"
	"gig-wizard/internal/skillcrud"
	"gig-wizard/internal/storage"
)

// Catalog 提供类别全量读取，本地模式下是 storage.Catalog，代理模式下是 refclient.HTTPClient。
type Catalog interface {
	FetchCategory(ctx context.Context, category model.Category) ([]model.ReferenceItem, error)
}

// Skills 抽象技能管理，skillcrud.Manager 满足该接口。
type Skills interface {
	Create(ctx context.Context, in model.SkillInput) (model.ReferenceItem, error)
	Update(ctx context.Context, id string, in model.SkillInput) (model.ReferenceItem, error)
	Delete(ctx context.Context, category model.Category, id string) error
	SearchByName(ctx context.Context, category model.Category, query string) ([]model.ReferenceItem, error)
	GetByID(ctx context.Context, id string) (model.ReferenceItem, error)
	Sync(ctx context.Context, items []model.ReferenceItem) (refclient.SyncResult, error)
}

// Reference 是向导使用的参考数据入口，reference.Service 满足该接口。
type Reference interface {
	Load(ctx context.Context, category model.Category) []model.ReferenceItem
	Options(category model.Category) []resolver.Option
	LoadAndMigrate(ctx context.Context, b model.Bundle, policy migrate.Policy) migrate.Result
	ClearCache()
}

// Gigs 处理草稿提交。
type Gigs interface {
	Submit(ctx context.Context, d gig.Draft) (model.Gig, migrate.Result, error)
}

// GigReader 读取已提交的 gig。
type GigReader interface {
	GetGig(ctx context.Context, id string) (*model.Gig, error)
}

// Warmer 抽象缓存预热。
type Warmer interface {
	RunOnce(ctx context.Context) (int, error)
}

// Deps 汇总 Handler 依赖，缺失的依赖对应接口返回 503。
type Deps struct {
	Catalog   Catalog
	Skills    Skills
	Reference Reference
	Gigs      Gigs
	GigReader GigReader
	Warmer    Warmer
}

// response 是统一的 {data, error} 响应。
type response struct {
	Data  any    `json:"data"`
	Error string `json:"error,omitempty"`
}

// MigrateRequest 是 /api/bundles/migrate 的请求体。
type MigrateRequest struct {
	Bundle model.Bundle `json:"bundle"`
	Final  bool         `json:"final"`
}

// SubmitResponse 是 /api/gigs 的响应数据。
type SubmitResponse struct {
	Gig     model.Gig            `json:"gig"`
	Dropped []migrate.Unresolved `json:"dropped"`
}

const maxBodyBytes = 1 << 20

var logger = log.New(os.Stdout, "[api] ", log.LstdFlags)

// NewHandler 构造 HTTP 多路复用器。
func NewHandler(deps Deps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// 参考数据服务端点，refclient 访问的就是这一组。
	mux.HandleFunc("GET /api/reference/{category}", func(w http.ResponseWriter, r *http.Request) {
		if deps.Catalog == nil {
			writeError(w, http.StatusServiceUnavailable, "catalog disabled")
			return
		}
		category, err := model.ParseCategory(r.PathValue("category"))
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		items, err := deps.Catalog.FetchCategory(r.Context(), category)
		if err != nil {
			writeFailure(w, err)
			return
		}
		if items == nil {
			items = []model.ReferenceItem{}
		}
		writeData(w, http.StatusOK, items)
	})

	mux.HandleFunc("POST /api/skills", func(w http.ResponseWriter, r *http.Request) {
		if deps.Skills == nil {
			writeError(w, http.StatusServiceUnavailable, "skills disabled")
			return
		}
		var in model.SkillInput
		if !decodeBody(w, r, &in) {
			return
		}
		item, err := deps.Skills.Create(r.Context(), in)
		if err != nil {
			writeFailure(w, err)
			return
		}
		writeData(w, http.StatusCreated, item)
	})

	mux.HandleFunc("GET /api/skills/search", func(w http.ResponseWriter, r *http.Request) {
		if deps.Skills == nil {
			writeError(w, http.StatusServiceUnavailable, "skills disabled")
			return
		}
		q := r.URL.Query()
		var category model.Category
		if raw := q.Get("category"); raw != "" {
			c, err := model.ParseCategory(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			category = c
		}
		items, err := deps.Skills.SearchByName(r.Context(), category, q.Get("name"))
		if err != nil {
			writeFailure(w, err)
			return
		}
		writeData(w, http.StatusOK, items)
	})

	mux.HandleFunc("POST /api/skills/sync", func(w http.ResponseWriter, r *http.Request) {
		if deps.Skills == nil {
			writeError(w, http.StatusServiceUnavailable, "skills disabled")
			return
		}
		var items []model.ReferenceItem
		if !decodeBody(w, r, &items) {
			return
		}
		res, err := deps.Skills.Sync(r.Context(), items)
		if err != nil {
			writeFailure(w, err)
			return
		}
		writeData(w, http.StatusOK, res)
	})

	mux.HandleFunc("GET /api/skills/{id}", func(w http.ResponseWriter, r *http.Request) {
		if deps.Skills == nil {
			writeError(w, http.StatusServiceUnavailable, "skills disabled")
			return
		}
		item, err := deps.Skills.GetByID(r.Context(), r.PathValue("id"))
		if err != nil {
			writeFailure(w, err)
			return
		}
		writeData(w, http.StatusOK, item)
	})

	mux.HandleFunc("PUT /api/skills/{id}", func(w http.ResponseWriter, r *http.Request) {
		if deps.Skills == nil {
			writeError(w, http.StatusServiceUnavailable, "skills disabled")
			return
		}
		var in model.SkillInput
		if !decodeBody(w, r, &in) {
			return
		}
		item, err := deps.Skills.Update(r.Context(), r.PathValue("id"), in)
		if err != nil {
			writeFailure(w, err)
			return
		}
		writeData(w, http.StatusOK, item)
	})

	mux.HandleFunc("DELETE /api/skills/{id}", func(w http.ResponseWriter, r *http.Request) {
		if deps.Skills == nil {
			writeError(w, http.StatusServiceUnavailable, "skills disabled")
			return
		}
		id := r.PathValue("id")
		// 类别用于缓存失效，未给出时先查一次条目。
		var category model.Category
		if raw := r.URL.Query().Get("category"); raw != "" {
			c, err := model.ParseCategory(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			category = c
		} else {
			item, err := deps.Skills.GetByID(r.Context(), id)
			if err != nil {
				writeFailure(w, err)
				return
			}
			category = item.Category
		}
		if err := deps.Skills.Delete(r.Context(), category, id); err != nil {
			writeFailure(w, err)
			return
		}
		writeData(w, http.StatusOK, map[string]string{"id": id})
	})

	// 向导端点。
	mux.HandleFunc("GET /api/options/{category}", func(w http.ResponseWriter, r *http.Request) {
		if deps.Reference == nil {
			writeError(w, http.StatusServiceUnavailable, "reference disabled")
			return
		}
		category, err := model.ParseCategory(r.PathValue("category"))
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		deps.Reference.Load(r.Context(), category)
		writeData(w, http.StatusOK, deps.Reference.Options(category))
	})

	mux.HandleFunc("POST /api/bundles/migrate", func(w http.ResponseWriter, r *http.Request) {
		if deps.Reference == nil {
			writeError(w, http.StatusServiceUnavailable, "reference disabled")
			return
		}
		var req MigrateRequest
		if !decodeBody(w, r, &req) {
			return
		}
		policy := migrate.Retain
		if req.Final {
			policy = migrate.Drop
		}
		writeData(w, http.StatusOK, deps.Reference.LoadAndMigrate(r.Context(), req.Bundle, policy))
	})

	mux.HandleFunc("POST /api/gigs", func(w http.ResponseWriter, r *http.Request) {
		if deps.Gigs == nil {
			writeError(w, http.StatusServiceUnavailable, "gigs disabled")
			return
		}
		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid payload")
			return
		}
		draft, err := gig.DecodeDraft(data)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		created, res, err := deps.Gigs.Submit(r.Context(), draft)
		if err != nil {
			writeFailure(w, err)
			return
		}
		dropped := res.Dropped
		if dropped == nil {
			dropped = []migrate.Unresolved{}
		}
		writeData(w, http.StatusCreated, SubmitResponse{Gig: created, Dropped: dropped})
	})

	mux.HandleFunc("GET /api/gigs/{id}", func(w http.ResponseWriter, r *http.Request) {
		if deps.GigReader == nil {
			writeError(w, http.StatusServiceUnavailable, "gigs disabled")
			return
		}
		found, err := deps.GigReader.GetGig(r.Context(), r.PathValue("id"))
		if err != nil {
			writeFailure(w, err)
			return
		}
		writeData(w, http.StatusOK, found)
	})

	mux.HandleFunc("POST /api/cache/clear", func(w http.ResponseWriter, r *http.Request) {
		if deps.Reference == nil {
			writeError(w, http.StatusServiceUnavailable, "reference disabled")
			return
		}
		deps.Reference.ClearCache()
		writeData(w, http.StatusOK, map[string]string{"status": "cleared"})
	})

	mux.HandleFunc("POST /api/cache/warm", func(w http.ResponseWriter, r *http.Request) {
		if deps.Warmer == nil {
			writeError(w, http.StatusServiceUnavailable, "warmer disabled")
			return
		}
		loaded, err := deps.Warmer.RunOnce(r.Context())
		if err != nil {
			logger.Printf("warm cache: %v", err)
		}
		writeData(w, http.StatusOK, map[string]int{"loaded": loaded})
	})

	return mux
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return false
	}
	return true
}

// writeFailure 把领域错误映射成状态码。
func writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, refclient.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, skillcrud.ErrInvalidInput), errors.Is(err, gig.ErrInvalidDraft):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Printf("request failed: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, response{Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, response{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
