package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/clinichub/clinic-scheduling/internal/availability"
	"github.com/clinichub/clinic-scheduling/internal/schedule"
)

func availabilityParams(req CreateAvailabilityRequest) (availability.Params, error) {
	start, err := schedule.ParseTimeOfDay(req.Start)
	if err != nil {
		return availability.Params{}, err
	}
	end, err := schedule.ParseTimeOfDay(req.End)
	if err != nil {
		return availability.Params{}, err
	}

	// UUID format is already enforced by the request validator.
	return availability.Params{
		DoctorID:   uuid.MustParse(req.DoctorID),
		CenterID:   uuid.MustParse(req.CenterID),
		Weekday:    time.Weekday(req.Weekday),
		Start:      start,
		End:        end,
		DurationID: uuid.MustParse(req.DurationID),
		Recurring:  req.Recurring,
	}, nil
}

func createAvailabilityHandler(svc *availability.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAvailabilityRequest
		if err := decodeAndValidate(r, &req); err != nil {
			respondError(w, err)
			return
		}

		p, err := availabilityParams(req)
		if err != nil {
			respondError(w, err)
			return
		}

		created, err := svc.CreateAvailability(r.Context(), p)
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toAvailabilityResponse(created))
	}
}

func updateAvailabilityHandler(svc *availability.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}

		var req CreateAvailabilityRequest
		if err := decodeAndValidate(r, &req); err != nil {
			respondError(w, err)
			return
		}

		p, err := availabilityParams(req)
		if err != nil {
			respondError(w, err)
			return
		}

		updated, err := svc.UpdateAvailability(r.Context(), id, p)
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAvailabilityResponse(updated))
	}
}

func toggleAvailabilityHandler(svc *availability.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}

		updated, err := svc.ToggleAvailabilityStatus(r.Context(), id)
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAvailabilityResponse(updated))
	}
}

func deleteAvailabilityHandler(svc *availability.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}

		if err := svc.DeleteAvailability(r.Context(), id); err != nil {
			respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func getAvailabilityHandler(svc *availability.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}

		a, err := svc.GetAvailability(r.Context(), id)
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAvailabilityResponse(a))
	}
}

func listDoctorAvailabilityHandler(svc *availability.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuidParam(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}

		list, err := svc.ListByDoctor(r.Context(), doctorID)
		if err != nil {
			respondError(w, err)
			return
		}

		resp := make([]AvailabilityResponse, 0, len(list))
		for i := range list {
			resp = append(resp, toAvailabilityResponse(&list[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
