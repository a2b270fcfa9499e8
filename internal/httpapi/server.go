package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wearrelay/internal/manager"
	"wearrelay/internal/prefs"
	"wearrelay/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Status() types.StatusResponse
	Submit(action string) error
	Ready() bool
}

// DeviceLister lists paired Bluetooth devices.
type DeviceLister interface {
	PairedDevices(ctx context.Context) ([]types.BluetoothDevice, error)
}

// Deps are optional collaborators; routes for nil deps answer 501.
type Deps struct {
	// Wear serves companion WebSocket sessions on /wear.
	Wear    http.Handler
	Devices DeviceLister
	Prefs   prefs.Store
}

func NewMux(svc Service, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(MetricsMiddleware)
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(accessLog)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	// Companion sessions are hijacked connections; keep them out of compression.
	r.With(requireAuth).Get("/wear", func(w http.ResponseWriter, r *http.Request) {
		if deps.Wear == nil {
			writeJSONError(w, http.StatusNotImplemented, "companion transport not configured")
			return
		}
		deps.Wear.ServeHTTP(w, r)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Compress(5))

		r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, svc.Status())
		})

		r.With(requireAuth).Post("/actions/{action}", func(w http.ResponseWriter, r *http.Request) {
			action := chi.URLParam(r, "action")
			if err := svc.Submit(action); err != nil {
				switch {
				case manager.IsUnknownAction(err):
					IncrementRejected("unknown_action")
					writeJSONError(w, http.StatusBadRequest, err.Error())
				case errors.Is(err, manager.ErrClosed):
					IncrementRejected("closed")
					writeJSONError(w, http.StatusServiceUnavailable, err.Error())
				default:
					var he HTTPError
					if errors.As(err, &he) {
						writeJSONError(w, he.StatusCode(), he.Error())
						return
					}
					writeJSONError(w, http.StatusInternalServerError, err.Error())
				}
				return
			}
			writeJSON(w, http.StatusAccepted, types.ActionResponse{Action: action, Accepted: true})
		})

		r.Get("/bluetooth/devices", func(w http.ResponseWriter, r *http.Request) {
			if deps.Devices == nil {
				writeJSONError(w, http.StatusNotImplemented, "bluetooth inventory not available")
				return
			}
			ctx, cancel := lookupContext(r)
			defer cancel()
			devices, err := deps.Devices.PairedDevices(ctx)
			if err != nil {
				writeJSONError(w, http.StatusBadGateway, err.Error())
				return
			}
			if devices == nil {
				devices = []types.BluetoothDevice{}
			}
			writeJSON(w, http.StatusOK, types.DevicesResponse{Devices: devices})
		})

		r.With(requireAuth).Post("/bluetooth/select", func(w http.ResponseWriter, r *http.Request) {
			if deps.Prefs == nil {
				writeJSONError(w, http.StatusNotImplemented, "preference store not configured")
				return
			}
			if !isJSON(r) {
				writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
			var req types.SelectDeviceRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
				return
			}
			addr, err := prefs.SelectBluetoothDevice(deps.Prefs, req.Address)
			if errors.Is(err, prefs.ErrInvalidAddress) {
				IncrementRejected("validation")
				writeJSONError(w, http.StatusBadRequest, err.Error())
				return
			}
			if err != nil {
				writeJSONError(w, http.StatusInternalServerError, err.Error())
				return
			}
			logger().Info().Str("address", addr).Msg("bluetooth device selected")
			writeJSON(w, http.StatusOK, types.PreferenceValue{Key: prefs.KeyBluetoothAddress, Value: addr})
		})

		r.Get("/prefs", func(w http.ResponseWriter, r *http.Request) {
			if deps.Prefs == nil {
				writeJSONError(w, http.StatusNotImplemented, "preference store not configured")
				return
			}
			all, err := deps.Prefs.All()
			if err != nil {
				writeJSONError(w, http.StatusInternalServerError, err.Error())
				return
			}
			resp := types.PreferencesResponse{Preferences: []types.PreferenceValue{}}
			for _, k := range prefs.SortedKeys(all) {
				v := all[k]
				if prefs.IsSecret(k) {
					v = "********"
				}
				resp.Preferences = append(resp.Preferences, types.PreferenceValue{Key: k, Value: v})
			}
			writeJSON(w, http.StatusOK, resp)
		})

		r.With(requireAuth).Put("/prefs/{key}", func(w http.ResponseWriter, r *http.Request) {
			if deps.Prefs == nil {
				writeJSONError(w, http.StatusNotImplemented, "preference store not configured")
				return
			}
			if !isJSON(r) {
				writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
				return
			}
			key := chi.URLParam(r, "key")
			r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
			var req types.PreferenceValue
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
				return
			}
			if err := prefs.Validate(key, req.Value); err != nil {
				IncrementRejected("validation")
				writeJSONError(w, http.StatusBadRequest, err.Error())
				return
			}
			if err := deps.Prefs.Set(key, req.Value); err != nil {
				writeJSONError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, types.PreferenceValue{Key: key, Value: req.Value})
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("stopped"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}

func isJSON(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return ct != "" && strings.HasPrefix(strings.ToLower(ct), "application/json")
}
