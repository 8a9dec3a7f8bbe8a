// Package http serves the admin console pages as JSON over a chi router.
//
// Every page answers with the envelope {"state","data","message","errors"}
// where state is "success", "error" or "redirect". Pages under /plateforme
// pass through RequireSession; a missing, malformed or expired session, as
// well as any 401 from the backend, answers 303 with Location /connexion and
// no return path.
//
// Unguarded routes:
//   - GET /: home, reports whether a session is active.
//   - GET|POST /connexion, POST /deconnexion, POST /inscription,
//     POST /mot-de-passe-oublie, POST /changer-mot-de-passe.
//   - /departements: department management (list, search, create, get,
//     update, delete, connectivity test).
//
// Guarded routes:
//   - GET /plateforme: dashboard counters and unread notification count.
//   - GET /plateforme/calendrier, GET /plateforme/recherche?term=.
//   - /plateforme/notifications: list, mark read, mark all read, delete.
//   - GET|PUT /plateforme/profil.
//   - /plateforme/presentations: list with vote stats, create (multipart
//     field "fichiers"), detail with comments and votes, update, delete,
//     comments and votes.
package http
