/*
Package shell wires the embedding shell together.

A Shell owns the asset router, navigation policy, permission gate, upload and
download brokers, the host link and the interactive loop. Host events arrive
on the link's reader goroutine and are posted to the loop; everything that
mutates broker or gate state runs there. Navigation and launch checks are pure
and answered inline.

Storage follows the capability descriptor: managed insertion uses the sqlite
catalog in storage/shared, direct writes go through storage/downloads.
*/
package shell
