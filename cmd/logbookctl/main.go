// Command logbookctl is the operator tool of the logbook backend: it seeds
// plan templates and users, wipes the database and runs the daily reminder
// by hand.
package main

func main() {
	Execute()
}
