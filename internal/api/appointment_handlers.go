package api

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/clinichub/clinic-scheduling/internal/booking"
)

func bookAppointmentHandler(svc *booking.AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookAppointmentRequest
		if err := decodeAndValidate(r, &req); err != nil {
			respondError(w, err)
			return
		}

		appt, err := svc.BookAppointment(r.Context(), uuid.MustParse(req.PatientID), uuid.MustParse(req.SlotID), req.Reason)
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func transitionAppointmentHandler(fn func(r *http.Request, id uuid.UUID) (*booking.Appointment, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}

		appt, err := fn(r, id)
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func updateAppointmentHandler(svc *booking.AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}

		var req UpdateAppointmentRequest
		if err := decodeAndValidate(r, &req); err != nil {
			respondError(w, err)
			return
		}

		p := booking.UpdateParams{Reason: req.Reason}
		if req.SlotID != nil {
			slotID := uuid.MustParse(*req.SlotID)
			p.SlotID = &slotID
		}

		appt, err := svc.UpdateAppointment(r.Context(), id, p)
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func deleteAppointmentHandler(svc *booking.AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}

		if err := svc.DeleteAppointment(r.Context(), id); err != nil {
			respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func getAppointmentHandler(svc *booking.AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}

		appt, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func listPatientAppointmentsHandler(svc *booking.AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patientID, err := uuidParam(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		appts, err := svc.ListAppointmentsByPatient(r.Context(), patientID, limit, offset)
		if err != nil {
			respondError(w, err)
			return
		}

		resp := make([]AppointmentResponse, 0, len(appts))
		for i := range appts {
			resp = append(resp, toAppointmentResponse(&appts[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
