package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/clinichub/clinic-scheduling/internal/booking"
	"github.com/clinichub/clinic-scheduling/internal/schedule"
)

func slotParams(req CreateSlotRequest) (booking.SlotParams, error) {
	start, err := schedule.ParseTimeOfDay(req.Start)
	if err != nil {
		return booking.SlotParams{}, err
	}
	end, err := schedule.ParseTimeOfDay(req.End)
	if err != nil {
		return booking.SlotParams{}, err
	}

	// Date and UUID formats are already enforced by the request validator.
	date, _ := time.Parse("2006-01-02", req.Date)

	return booking.SlotParams{
		DoctorID:  uuid.MustParse(req.DoctorID),
		RoomID:    uuid.MustParse(req.RoomID),
		Date:      date,
		Start:     start,
		End:       end,
		Recurring: req.Recurring,
		Status:    booking.SlotStatus(req.Status),
	}, nil
}

func createSlotHandler(svc *booking.SlotService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateSlotRequest
		if err := decodeAndValidate(r, &req); err != nil {
			respondError(w, err)
			return
		}

		p, err := slotParams(req)
		if err != nil {
			respondError(w, err)
			return
		}

		created, err := svc.CreateSlot(r.Context(), p)
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toSlotResponse(created))
	}
}

func updateSlotHandler(svc *booking.SlotService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}

		var req CreateSlotRequest
		if err := decodeAndValidate(r, &req); err != nil {
			respondError(w, err)
			return
		}

		p, err := slotParams(req)
		if err != nil {
			respondError(w, err)
			return
		}

		updated, err := svc.UpdateSlot(r.Context(), id, p)
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSlotResponse(updated))
	}
}

func deleteSlotHandler(svc *booking.SlotService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}

		if err := svc.DeleteSlot(r.Context(), id); err != nil {
			respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func getSlotHandler(svc *booking.SlotService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}

		s, err := svc.GetSlot(r.Context(), id)
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSlotResponse(s))
	}
}

func listDoctorSlotsHandler(svc *booking.SlotService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuidParam(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}

		// Default to the coming week.
		from := time.Now()
		to := from.AddDate(0, 0, 7)
		if v := r.URL.Query().Get("from"); v != "" {
			if parsed, err := time.Parse("2006-01-02", v); err == nil {
				from = parsed
			}
		}
		if v := r.URL.Query().Get("to"); v != "" {
			if parsed, err := time.Parse("2006-01-02", v); err == nil {
				to = parsed
			}
		}

		slots, err := svc.ListSlotsByDoctor(r.Context(), doctorID, from, to)
		if err != nil {
			respondError(w, err)
			return
		}

		resp := make([]SlotResponse, 0, len(slots))
		for i := range slots {
			resp = append(resp, toSlotResponse(&slots[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
