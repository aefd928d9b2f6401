/*
Package exitcode maps terminal run results to stable process exit codes.

Exit-code-as-control-flow is confined to this single package: every stage
returns a tagged error, and Finish is the one place a taxonomy kind becomes
a number and the final diagnostic line is written.
*/
package exitcode
