/*
Package server manages the HTTP server lifecycle: non-blocking startup,
graceful shutdown and signal handling.

# Overview

Manager wraps net/http.Server and owns the listener, serve loop and
error propagation. It supports plain HTTP and TLS, and handles
SIGINT/SIGTERM for production-grade graceful stops.

# Capabilities

  - Non-blocking startup: Start/StartTLS serve from a background
    goroutine.
  - Graceful shutdown: Shutdown drains connections within the
    configured timeout.
  - Signal handling: WaitForShutdown blocks on SIGINT/SIGTERM and then
    shuts down.
  - Error propagation: Errors() exposes asynchronous serve failures.
*/
package server
