// Package http provides HTTP handlers and middleware for the classroom
// scheduler API consumed by the browser's weekly grid.
//
// Every route except GET /healthz requires an "Authorization: Bearer" token.
// Times are naive wall-clock strings ("2006-01-02T15:04:05") interpreted in
// the configured timezone.
//
//   - GET /classrooms, POST /classrooms, GET|PUT|DELETE /classrooms/:id: the
//     classroom catalog. Listing is open to any principal; mutations require
//     an administrator. Deleting a classroom deletes its bookings.
//   - GET /classrooms/:id/calendar.ics: the classroom's bookings as iCalendar.
//   - GET /bookings?classroom_id=&from=&to=&period=day|week&date=: bookings
//     overlapping the window plus double-booking warnings.
//   - POST /bookings: creates a booking, or a series when kind is
//     recurring_weekly or recurring_weekday and recurrence_until is set.
//   - PUT /bookings/:id?scope=instance|series: edits one instance (detaching
//     it from its series) or regenerates the whole series.
//   - POST /bookings/:id/move and POST /bookings/:id/resize: drag and
//     stretch one instance.
//   - DELETE /bookings/:id?scope=instance|series.
//
// Mutations answer with {"created","updated","removed","truncated"}.
// Conflicts answer 409 with the colliding booking under "conflict",
// validation failures 422 with per-field "errors", store failures 502.
package http
