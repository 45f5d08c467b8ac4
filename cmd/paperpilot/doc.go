// Command paperpilot runs the paper pipeline service.
//
// The serve command wires the project store, the research sources, the
// drafting and review agents, and the HTTP API together, then listens on
// two ports: one for the API and one for Prometheus metrics. The migrate
// command manages the relational schema for postgres and mysql
// deployments.
package main
