package keys

import "testing"

func TestIsStatefulKey(t *testing.T) {
	t.Parallel()

	for _, key := range []string{KeyVault("v"), KeyBalance("a")} {
		if !IsStatefulKey(key) {
			t.Fatalf("expected stateful key: %s", key)
		}
	}
}

func TestIsStatefulKeyExcludesFlowKeys(t *testing.T) {
	t.Parallel()

	cases := []string{
		KeyVaultEvents("v"),
		KeyEvent(1),
		KeyEventSeq(),
		KeyVMAppliedTx("tx-1"),
		KeyVMCommitHeight(1),
	}
	for _, key := range cases {
		if IsStatefulKey(key) {
			t.Fatalf("expected KV-only key: %s", key)
		}
	}
}

func TestCategoryName(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		KeyVault("v"):       "vault",
		KeyVaultEvents("v"): "index",
		KeyBalance("a"):     "balance",
		KeyEvent(3):         "event",
		KeyVMReceipt("tx"):  "receipt",
		KeyLatestHeight():   "meta",
	}
	for key, want := range cases {
		if got := CategoryName(key); got != want {
			t.Fatalf("CategoryName(%s)=%s want=%s", key, got, want)
		}
	}
}
