// Package webui serves a built copy of the desktop UI's web frontend, so the
// bridge can be driven from a browser as well as from the desktop shell.
//
// Unknown paths fall back to index.html for client-side routing. Paths
// under /api/ are never rewritten, so a missing API route is still a 404.
package webui
