/*
Package installer contains the pluggable workload steps the orchestrator
delegates to.

Every workload implements the same contract: a durable installed-check, an
install, a configure that replaces conflicting distribution defaults, and a
service-management step that captures recent logs on failure. Three variants
ship today: an nginx reverse proxy and two vLLM inference-server installers
(source build and pinned package manifest). The two vLLM procedures target
different deployments and deliberately coexist behind one contract.
*/
package installer
