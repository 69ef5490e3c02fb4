/*
Package nodeid names the nodes the compiler and the evaluator talk about.

An Address is a dot-separated list of names such as `terrain.main.lerp1`:
the asset, the terminal graph and the node id. Nodes synthesized during
compilation append the id of the node they were expanded from. Inside a
called graph the address is prefixed with the address of the calling node,
so `caller.main.box.box.main.root` is node `root` of asset `box` called from
node `box` of `caller`.

A ParameterPath locates an instance in the engine's parameter store. Root
instances are named by their asset; called graphs by the call frames that
lead to them.
*/
package nodeid
