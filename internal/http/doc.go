// Package http exposes the scheduling engine over a JSON API.
//
// The router exposes the following endpoints:
//   - POST /services, GET /services?year=&month=, GET /services/upcoming: create and
//     list services. Service payloads are the `serviceDTO` defined in service_handler.go.
//   - GET /services/{id}: the service with its resolved assignments.
//   - POST /services/{id}/duplicate, POST /services/{id}/publish.
//   - POST /services/{id}/assignments, DELETE /assignments/{id}: staffing.
//   - GET /services/{id}/program?format=text|html|pdf: the order of service.
//   - POST /services/{id}/notifications: notify assignees; per-recipient outcomes
//     are returned in the body.
//   - GET /calendar/season?date=, GET /calendar/easter?year=, GET /feed.ics.
//   - GET /people, POST /people, GET /ministries, POST /ministries.
//
// Validation failures map to 422 with a field map, missing resources to 404,
// duplicates to 409 and failed service writes to 500.
package http
