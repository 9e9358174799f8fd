// Command theaterctl is the operator tool for the booking engine: schema
// migration, bulk imports, occupancy reports, token issuance and the
// audit consumer.
package main

func main() {
	Execute()
}
