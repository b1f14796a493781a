package models

import "testing"

func TestReceiptStatusRankOrdersForward(t *testing.T) {
	if ReceiptDelivered.Rank() >= ReceiptRead.Rank() {
		t.Fatalf("expected delivered to rank below read")
	}
	if ReceiptStatus("bogus").Rank() != 0 {
		t.Fatalf("expected unknown status to rank lowest")
	}
}

func TestReceiptStatusValid(t *testing.T) {
	for _, status := range []ReceiptStatus{ReceiptDelivered, ReceiptRead} {
		if !status.Valid() {
			t.Fatalf("expected %s to be valid", status)
		}
	}
	if ReceiptStatus("seen").Valid() {
		t.Fatalf("expected unknown status to be invalid")
	}
}
